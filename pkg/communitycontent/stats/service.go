// Package stats computes operator reports over the content store: per-kind
// totals and per-contributor counts joined against the external roster.
//
// Each report is reduced from a single grouped store read, so totals never
// mix two store generations.
package stats

import (
	"context"
	"time"

	"github.com/tendant/community-content/pkg/communitycontent"
)

// UnknownDisplayName is attached to authors that are not in the roster.
const UnknownDisplayName = "Unknown"

// Stats is the per-kind summary of the content store.
type Stats struct {
	TotalByKind       map[communitycontent.Kind]int64 `json:"totalByKind"`
	PendingByKind     map[communitycontent.Kind]int64 `json:"pendingByKind"`
	TotalContributors int64                           `json:"totalContributors"`
	ComputedAt        time.Time                       `json:"computedAt"`
}

// ContributorCount is one row of the contributor report.
type ContributorCount struct {
	Email        string     `json:"email"`
	DisplayName  string     `json:"displayName"`
	Count        int64      `json:"count"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
	RosterID     string     `json:"rosterId,omitempty"`
	InRoster     bool       `json:"inRoster"`
}

// Service computes operator reports.
type Service interface {
	ComputeStats(ctx context.Context, principal communitycontent.Principal) (*Stats, error)
	ComputeContributorCounts(ctx context.Context, principal communitycontent.Principal) ([]ContributorCount, error)
}

// Option configures the stats service
type Option func(*statsService)

// WithStoreTimeout bounds every store and roster call
func WithStoreTimeout(d time.Duration) Option {
	return func(s *statsService) {
		s.storeTimeout = d
	}
}

// WithClock overrides the time source used for ComputedAt
func WithClock(now func() time.Time) Option {
	return func(s *statsService) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a stats service over the content repository and the roster.
func New(repo communitycontent.Repository, roster communitycontent.RosterSource, opts ...Option) Service {
	s := &statsService{
		repo:         repo,
		roster:       roster,
		storeTimeout: communitycontent.DefaultStoreTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
