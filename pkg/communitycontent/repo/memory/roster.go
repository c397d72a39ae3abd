package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/tendant/community-content/pkg/communitycontent"
)

// Roster is an in-memory communitycontent.RosterSource.
type Roster struct {
	mu      sync.RWMutex
	entries []communitycontent.RosterEntry
}

// NewRoster creates a roster seeded with entries.
func NewRoster(entries ...communitycontent.RosterEntry) *Roster {
	r := &Roster{}
	for _, e := range entries {
		r.Add(e)
	}
	return r
}

var _ communitycontent.RosterSource = (*Roster)(nil)

// Add appends an entry. Emails are stored in canonical form.
func (r *Roster) Add(entry communitycontent.RosterEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.Email = communitycontent.NormalizeEmail(entry.Email)
	r.entries = append(r.entries, entry)
}

// Find returns entries whose email contains pattern, case-insensitively.
func (r *Roster) Find(ctx context.Context, pattern string) ([]communitycontent.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	pattern = communitycontent.NormalizeEmail(pattern)
	result := make([]communitycontent.RosterEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if pattern == "" || strings.Contains(e.Email, pattern) {
			result = append(result, e)
		}
	}
	return result, nil
}
