package communitycontent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultStoreTimeout bounds a single store call when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// service implements the Service interface
type service struct {
	repository   Repository
	eventSink    EventSink
	storeTimeout time.Duration
	now          func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithStoreTimeout bounds every store call made by the service
func WithStoreTimeout(d time.Duration) Option {
	return func(s *service) {
		s.storeTimeout = d
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink:    NewNoopEventSink(),
		storeTimeout: DefaultStoreTimeout,
		now:          time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// StoreContext derives the context used for one store call.
func StoreContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *service) Submit(ctx context.Context, principal Principal, req SubmitRequest, path SubmissionPath) (*Item, error) {
	if !principal.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if !path.IsValid() {
		return nil, &ValidationError{Field: "path", Message: fmt.Sprintf("unknown submission path %q", path)}
	}
	if err := ValidateSubmission(req); err != nil {
		return nil, err
	}
	if err := ValidateAuthor(principal.Email); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &Item{
		ID:          uuid.New(),
		Kind:        NormalizeKind(string(req.Kind)),
		Title:       strings.TrimSpace(req.Title),
		Links:       cleanList(req.Links),
		AuthorEmail: NormalizeEmail(principal.Email),
		IsApproved:  path == SubmissionTrusted,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch item.Kind {
	case KindNote:
		item.Note = &NoteFields{
			Subject: strings.TrimSpace(req.Note.Subject),
			Unit:    strings.TrimSpace(req.Note.Unit),
		}
	case KindProject:
		item.Project = &ProjectFields{
			TechStack:   cleanList(req.Project.TechStack),
			Description: strings.TrimSpace(req.Project.Description),
		}
	}

	sctx, cancel := StoreContext(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repository.InsertItem(sctx, item); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "submit", Err: StoreFailure("insert item", err)}
	}

	if err := s.eventSink.ItemSubmitted(ctx, item); err != nil {
		slog.Warn("Failed to publish submission event", "item_id", item.ID, "error", err)
	}

	return item, nil
}

func (s *service) Get(ctx context.Context, principal Principal, id uuid.UUID) (*Item, error) {
	sctx, cancel := StoreContext(ctx, s.storeTimeout)
	defer cancel()

	item, err := s.repository.GetItem(sctx, id)
	if err != nil {
		return nil, &ItemError{ItemID: id, Op: "get", Err: StoreFailure("get item", err)}
	}
	if !item.IsApproved && !principal.IsOperator() {
		return nil, &ItemError{ItemID: id, Op: "get", Err: ErrNotFound}
	}
	return item, nil
}

func (s *service) ListVisible(ctx context.Context, principal Principal, req ListRequest) ([]*Item, error) {
	approved := true
	filter := ItemFilter{
		Approved: &approved,
		Kind:     req.Kind,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Kind != nil && !req.Kind.IsValid() {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", *req.Kind)}
	}

	sctx, cancel := StoreContext(ctx, s.storeTimeout)
	defer cancel()

	items, err := s.repository.ListItems(sctx, filter)
	if err != nil {
		return nil, StoreFailure("list items", err)
	}
	return items, nil
}
