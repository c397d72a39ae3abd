package moderation

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// Service defines the operator-only moderation operations.
//
// Every method checks that the principal is an operator before touching the
// store and returns communitycontent.ErrUnauthorized otherwise.
type Service interface {
	// ListAll returns items in both states, newest first.
	ListAll(ctx context.Context, principal communitycontent.Principal, req ListItemsRequest) (*ListItemsResponse, error)

	// ListPending returns the moderation queue, newest first.
	ListPending(ctx context.Context, principal communitycontent.Principal) ([]*communitycontent.Item, error)

	// SetApproval moves an item to the requested approval state. Approving
	// an approved item and un-approving a pending item are no-ops. Moving an
	// approved item back to pending fails with ErrInvalidTransition.
	SetApproval(ctx context.Context, principal communitycontent.Principal, id uuid.UUID, approved bool) (*communitycontent.Item, error)

	// Approve is SetApproval(id, true).
	Approve(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) (*communitycontent.Item, error)

	// Reject deletes a pending item. Approved items must be removed with Delete.
	Reject(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) error

	// Delete removes an item in any state.
	Delete(ctx context.Context, principal communitycontent.Principal, id uuid.UUID) error
}

// New creates a moderation service over repo.
func New(repo communitycontent.Repository, opts ...Option) Service {
	s := &moderationService{
		repo:         repo,
		eventSink:    communitycontent.NewNoopEventSink(),
		storeTimeout: communitycontent.DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
