package communitycontent

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the public content operations.
type Service interface {
	// Submit validates and stores a new item authored by the principal.
	Submit(ctx context.Context, principal Principal, req SubmitRequest, path SubmissionPath) (*Item, error)

	// Get returns a single item. Pending items are reported as not found to
	// callers that are not operators.
	Get(ctx context.Context, principal Principal, id uuid.UUID) (*Item, error)

	// ListVisible is the public listing: it returns approved items only,
	// whatever the principal's role. Operators list pending items through
	// the moderation service.
	ListVisible(ctx context.Context, principal Principal, req ListRequest) ([]*Item, error)
}
