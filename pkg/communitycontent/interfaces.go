package communitycontent

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for item persistence.
//
// Mutations must be atomic per document: when two callers race to delete the
// same id exactly one succeeds and the other receives ErrNotFound.
type Repository interface {
	InsertItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error)

	// UpdateApproval writes the flag only when it differs from the stored
	// value and reports whether this call changed it. Of several callers
	// setting the same value, exactly one sees changed=true.
	UpdateApproval(ctx context.Context, id uuid.UUID, approved bool) (item *Item, changed bool, err error)

	DeleteItem(ctx context.Context, id uuid.UUID) error

	// DeletePendingItem removes the item only while it is pending. An
	// approved item is left in place and ErrInvalidTransition is returned.
	DeletePendingItem(ctx context.Context, id uuid.UUID) error

	// GroupItems counts items grouped by the given keys in a single read.
	GroupItems(ctx context.Context, keys ...GroupKey) ([]ItemGroup, error)
}

// RosterSource is the read-only external identity roster.
type RosterSource interface {
	// Find returns roster entries whose email matches pattern. An empty
	// pattern returns every entry.
	Find(ctx context.Context, pattern string) ([]RosterEntry, error)
}

// CredentialStore persists operator credential hashes.
type CredentialStore interface {
	GetCredential(ctx context.Context, email string) (*OperatorCredential, error)

	// SwapCredential replaces oldHash with newHash only if oldHash is still
	// the stored value. It returns ErrConflict otherwise.
	SwapCredential(ctx context.Context, email, oldHash, newHash string) error
}

// Hasher is the opaque one-way credential primitive.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(storedHash, candidate string) bool
}

// EventSink receives moderation lifecycle events.
type EventSink interface {
	ItemSubmitted(ctx context.Context, item *Item) error
	ItemApproved(ctx context.Context, item *Item, by Principal) error
	ItemDeleted(ctx context.Context, itemID uuid.UUID, by Principal) error
}
