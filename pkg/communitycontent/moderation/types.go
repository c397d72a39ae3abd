package moderation

import (
	"time"

	"github.com/tendant/community-content/pkg/communitycontent"
)

// Option configures the moderation service
type Option func(*moderationService)

// WithEventSink sets the sink notified of approvals and deletions
func WithEventSink(sink communitycontent.EventSink) Option {
	return func(s *moderationService) {
		if sink != nil {
			s.eventSink = sink
		}
	}
}

// WithStoreTimeout bounds every store call
func WithStoreTimeout(d time.Duration) Option {
	return func(s *moderationService) {
		s.storeTimeout = d
	}
}

// ListItemsRequest contains parameters for the operator listing
type ListItemsRequest struct {
	State  *communitycontent.ApprovalState `json:"state,omitempty"`
	Kind   *communitycontent.Kind          `json:"kind,omitempty"`
	Author string                          `json:"author,omitempty"`
	Limit  *int                            `json:"limit,omitempty"`
	Offset *int                            `json:"offset,omitempty"`
}

// ListItemsResponse contains the matching items. Limit is zero when the
// request was not paged.
type ListItemsResponse struct {
	Items   []*communitycontent.Item `json:"items"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
	HasMore bool                     `json:"has_more"`
}

// ListItemsOption provides functional options for listing items
type ListItemsOption func(*ListItemsRequest)

// NewListItemsRequest builds a request from options
func NewListItemsRequest(opts ...ListItemsOption) ListItemsRequest {
	var req ListItemsRequest
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithState filters by approval state
func WithState(state communitycontent.ApprovalState) ListItemsOption {
	return func(r *ListItemsRequest) {
		r.State = &state
	}
}

// WithKind filters by kind
func WithKind(kind communitycontent.Kind) ListItemsOption {
	return func(r *ListItemsRequest) {
		r.Kind = &kind
	}
}

// WithAuthor filters by author email
func WithAuthor(email string) ListItemsOption {
	return func(r *ListItemsRequest) {
		r.Author = email
	}
}

// WithPagination sets both limit and offset
func WithPagination(limit, offset int) ListItemsOption {
	return func(r *ListItemsRequest) {
		r.Limit = &limit
		r.Offset = &offset
	}
}
