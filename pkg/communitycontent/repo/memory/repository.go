package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// Repository implements communitycontent.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*communitycontent.Item
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		items: make(map[uuid.UUID]*communitycontent.Item),
	}
}

var _ communitycontent.Repository = (*Repository)(nil)

func (r *Repository) InsertItem(ctx context.Context, item *communitycontent.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return communitycontent.ErrConflict
	}
	// Store a copy to avoid external modifications
	r.items[item.ID] = item.Clone()
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*communitycontent.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, communitycontent.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *Repository) ListItems(ctx context.Context, filter communitycontent.ItemFilter) ([]*communitycontent.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*communitycontent.Item, 0, len(r.items))
	for _, item := range r.items {
		if filter.Approved != nil && item.IsApproved != *filter.Approved {
			continue
		}
		if filter.Kind != nil && item.Kind != *filter.Kind {
			continue
		}
		if filter.AuthorEmail != "" && item.AuthorEmail != communitycontent.NormalizeEmail(filter.AuthorEmail) {
			continue
		}
		result = append(result, item.Clone())
	}

	// Sort by created_at descending, id ascending for equal timestamps
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	// Apply limit and offset
	if filter.Offset != nil && *filter.Offset > 0 {
		if *filter.Offset >= len(result) {
			return []*communitycontent.Item{}, nil
		}
		result = result[*filter.Offset:]
	}
	if filter.Limit != nil && *filter.Limit > 0 && *filter.Limit < len(result) {
		result = result[:*filter.Limit]
	}

	return result, nil
}

func (r *Repository) UpdateApproval(ctx context.Context, id uuid.UUID, approved bool) (*communitycontent.Item, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, false, communitycontent.ErrNotFound
	}
	if item.IsApproved == approved {
		return item.Clone(), false, nil
	}
	item.IsApproved = approved
	item.UpdatedAt = time.Now().UTC()
	return item.Clone(), true, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return communitycontent.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *Repository) DeletePendingItem(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return communitycontent.ErrNotFound
	}
	if item.IsApproved {
		return fmt.Errorf("%w: item is approved", communitycontent.ErrInvalidTransition)
	}
	delete(r.items, id)
	return nil
}

type groupKey struct {
	kind   communitycontent.Kind
	author string
}

func (r *Repository) GroupItems(ctx context.Context, keys ...communitycontent.GroupKey) ([]communitycontent.ItemGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var byKind, byAuthor bool
	for _, k := range keys {
		switch k {
		case communitycontent.GroupByKind:
			byKind = true
		case communitycontent.GroupByAuthor:
			byAuthor = true
		default:
			return nil, &communitycontent.ValidationError{Field: "group_key", Message: "unsupported key " + string(k)}
		}
	}

	// One pass under the read lock gives a single consistent snapshot
	r.mu.RLock()
	buckets := make(map[groupKey]*communitycontent.ItemGroup)
	order := make([]groupKey, 0)
	for _, item := range r.items {
		var k groupKey
		if byKind {
			k.kind = item.Kind
		}
		if byAuthor {
			k.author = item.AuthorEmail
		}
		b, ok := buckets[k]
		if !ok {
			b = &communitycontent.ItemGroup{Kind: k.kind, AuthorEmail: k.author}
			buckets[k] = b
			order = append(order, k)
		}
		b.Total++
		if !item.IsApproved {
			b.Pending++
		}
	}
	r.mu.RUnlock()

	sort.Slice(order, func(i, j int) bool {
		if order[i].kind != order[j].kind {
			return order[i].kind < order[j].kind
		}
		return order[i].author < order[j].author
	})
	result := make([]communitycontent.ItemGroup, 0, len(order))
	for _, k := range order {
		result = append(result, *buckets[k])
	}
	return result, nil
}
