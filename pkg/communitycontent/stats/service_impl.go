package stats

import (
	"context"
	"sort"
	"time"

	"github.com/tendant/community-content/pkg/communitycontent"
)

type statsService struct {
	repo         communitycontent.Repository
	roster       communitycontent.RosterSource
	storeTimeout time.Duration
	now          func() time.Time
}

var _ Service = (*statsService)(nil)

func (s *statsService) ComputeStats(ctx context.Context, principal communitycontent.Principal) (*Stats, error) {
	if !principal.IsOperator() {
		return nil, communitycontent.ErrUnauthorized
	}

	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	groups, err := s.repo.GroupItems(sctx, communitycontent.GroupByKind, communitycontent.GroupByAuthor)
	if err != nil {
		return nil, communitycontent.StoreFailure("group items by kind and author", err)
	}

	result := &Stats{
		TotalByKind:   make(map[communitycontent.Kind]int64, len(communitycontent.Kinds)),
		PendingByKind: make(map[communitycontent.Kind]int64, len(communitycontent.Kinds)),
		ComputedAt:    s.now(),
	}
	for _, k := range communitycontent.Kinds {
		result.TotalByKind[k] = 0
		result.PendingByKind[k] = 0
	}

	authors := make(map[string]struct{})
	for _, g := range groups {
		result.TotalByKind[g.Kind] += g.Total
		result.PendingByKind[g.Kind] += g.Pending
		if g.Total > 0 {
			authors[g.AuthorEmail] = struct{}{}
		}
	}
	result.TotalContributors = int64(len(authors))

	return result, nil
}

func (s *statsService) ComputeContributorCounts(ctx context.Context, principal communitycontent.Principal) ([]ContributorCount, error) {
	if !principal.IsOperator() {
		return nil, communitycontent.ErrUnauthorized
	}

	sctx, cancel := communitycontent.StoreContext(ctx, s.storeTimeout)
	defer cancel()

	groups, err := s.repo.GroupItems(sctx, communitycontent.GroupByAuthor)
	if err != nil {
		return nil, communitycontent.StoreFailure("group items by author", err)
	}
	entries, err := s.roster.Find(sctx, "")
	if err != nil {
		return nil, communitycontent.StoreFailure("find roster entries", err)
	}

	counts := make(map[string]int64, len(groups))
	for _, g := range groups {
		counts[communitycontent.NormalizeEmail(g.AuthorEmail)] += g.Total
	}

	roster := make(map[string]communitycontent.RosterEntry, len(entries))
	for _, e := range entries {
		email := communitycontent.NormalizeEmail(e.Email)
		if prev, ok := roster[email]; ok && !rosterBefore(e, prev) {
			continue
		}
		e.Email = email
		roster[email] = e
	}

	result := make([]ContributorCount, 0, len(roster)+len(counts))
	for email, e := range roster {
		registered := e.CreatedAt
		result = append(result, ContributorCount{
			Email:        email,
			DisplayName:  e.DisplayName,
			Count:        counts[email],
			RegisteredAt: &registered,
			RosterID:     e.ID,
			InRoster:     true,
		})
	}
	for email, n := range counts {
		if _, ok := roster[email]; ok {
			continue
		}
		result = append(result, ContributorCount{
			Email:       email,
			DisplayName: UnknownDisplayName,
			Count:       n,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return contributorBefore(result[i], result[j])
	})
	return result, nil
}

// rosterBefore orders roster entries most recently registered first, then by id.
func rosterBefore(a, b communitycontent.RosterEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func contributorBefore(a, b ContributorCount) bool {
	if a.InRoster != b.InRoster {
		return a.InRoster
	}
	if a.InRoster {
		if !a.RegisteredAt.Equal(*b.RegisteredAt) {
			return a.RegisteredAt.After(*b.RegisteredAt)
		}
		if a.RosterID != b.RosterID {
			return a.RosterID < b.RosterID
		}
	}
	return a.Email < b.Email
}
