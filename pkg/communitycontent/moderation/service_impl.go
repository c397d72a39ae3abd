package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// moderationService implements the Service interface
type moderationService struct {
	repo         communitycontent.Repository
	eventSink    communitycontent.EventSink
	storeTimeout time.Duration
}

// Ensure moderationService implements Service
var _ Service = (*moderationService)(nil)

func requireOperator(p communitycontent.Principal) error {
	if !p.IsOperator() {
		return communitycontent.ErrUnauthorized
	}
	return nil
}

func (s *moderationService) ListAll(ctx context.Context, principal communitycontent.Principal, req ListItemsRequest) (*ListItemsResponse, error) {
	if err := requireOperator(principal); err != nil {
		return nil, err
	}

	filter, err := toItemFilter(req)
	if err != nil {
		return nil, err
	}

	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	items, err := s.repo.ListItems(sctx, filter)
	if err != nil {
		return nil, communitycontent.StoreFailure("list all items", err)
	}

	resp := &ListItemsResponse{Items: items}
	if filter.Offset != nil {
		resp.Offset = *filter.Offset
	}
	if filter.Limit != nil {
		resp.Limit = *filter.Limit
		resp.HasMore = len(items) == *filter.Limit
	}
	return resp, nil
}

func (s *moderationService) ListPending(ctx context.Context, principal communitycontent.Principal) ([]*communitycontent.Item, error) {
	if err := requireOperator(principal); err != nil {
		return nil, err
	}

	pending := false
	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	items, err := s.repo.ListItems(sctx, communitycontent.ItemFilter{Approved: &pending})
	if err != nil {
		return nil, communitycontent.StoreFailure("list pending items", err)
	}
	return items, nil
}

func (s *moderationService) SetApproval(ctx context.Context, principal communitycontent.Principal, id uuid.UUID, approved bool) (*communitycontent.Item, error) {
	if err := requireOperator(principal); err != nil {
		return nil, err
	}

	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	current, err := s.repo.GetItem(sctx, id)
	if err != nil {
		return nil, &communitycontent.ItemError{ItemID: id, Op: "set_approval", Err: communitycontent.StoreFailure("get item", err)}
	}

	write, err := communitycontent.CheckApprovalTransition(current.IsApproved, approved)
	if err != nil {
		return nil, &communitycontent.ItemError{ItemID: id, Op: "set_approval", Err: err}
	}
	if !write {
		return current, nil
	}

	updated, changed, err := s.repo.UpdateApproval(sctx, id, approved)
	if err != nil {
		return nil, &communitycontent.ItemError{ItemID: id, Op: "set_approval", Err: communitycontent.StoreFailure("update approval", err)}
	}
	if !changed {
		// another operator got there first
		return updated, nil
	}

	if err := s.eventSink.ItemApproved(ctx, updated, principal); err != nil {
		slog.Warn("Failed to publish approval event", "item_id", id, "error", err)
	}
	return updated, nil
}

func (s *moderationService) Approve(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) (*communitycontent.Item, error) {
	return s.SetApproval(ctx, principal, id, true)
}

func (s *moderationService) Reject(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) error {
	if err := requireOperator(principal); err != nil {
		return err
	}

	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.DeletePendingItem(sctx, id); err != nil {
		return &communitycontent.ItemError{ItemID: id, Op: "reject", Err: communitycontent.StoreFailure("delete pending item", err)}
	}
	s.publishDeleted(ctx, principal, id)
	return nil
}

func (s *moderationService) Delete(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) error {
	if err := requireOperator(principal); err != nil {
		return err
	}

	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.DeleteItem(sctx, id); err != nil {
		return &communitycontent.ItemError{ItemID: id, Op: "delete", Err: communitycontent.StoreFailure("delete item", err)}
	}
	s.publishDeleted(ctx, principal, id)
	return nil
}

func (s *moderationService) publishDeleted(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) {
	if err := s.eventSink.ItemDeleted(ctx, id, principal); err != nil {
		slog.Warn("Failed to publish deletion event", "item_id", id, "error", err)
	}
}

// toItemFilter converts a listing request to a repository filter. Without a
// limit every matching item is returned.
func toItemFilter(req ListItemsRequest) (communitycontent.ItemFilter, error) {
	filter := communitycontent.ItemFilter{
		Kind:        req.Kind,
		AuthorEmail: req.Author,
	}
	if req.Limit != nil && *req.Limit > 0 {
		limit := *req.Limit
		filter.Limit = &limit
	}
	if req.Offset != nil && *req.Offset > 0 {
		offset := *req.Offset
		filter.Offset = &offset
	}
	if req.Kind != nil && !req.Kind.IsValid() {
		return filter, &communitycontent.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", *req.Kind)}
	}
	if req.State != nil {
		switch *req.State {
		case communitycontent.StatePending:
			approved := false
			filter.Approved = &approved
		case communitycontent.StateApproved:
			approved := true
			filter.Approved = &approved
		default:
			return filter, &communitycontent.ValidationError{Field: "state", Message: fmt.Sprintf("unknown state %q", *req.State)}
		}
	}
	return filter, nil
}
