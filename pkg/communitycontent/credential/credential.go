// Package credential implements operator self-service secret rotation.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/community-content/pkg/communitycontent"
	"golang.org/x/crypto/bcrypt"
)

// DefaultMinSecretLength is the shortest secret Rotate accepts by default.
const DefaultMinSecretLength = 8

// MaxSecretBytes is the longest secret bcrypt can hash.
const MaxSecretBytes = 72

// BcryptHasher hashes secrets with bcrypt.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using bcrypt.DefaultCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

var _ communitycontent.Hasher = (*BcryptHasher)(nil)

func (h *BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(storedHash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}

// Rotator replaces an operator's stored secret hash.
type Rotator struct {
	store        communitycontent.CredentialStore
	hasher       communitycontent.Hasher
	minLength    int
	storeTimeout time.Duration
}

// Option configures a Rotator
type Option func(*Rotator)

// WithHasher overrides the bcrypt hasher
func WithHasher(h communitycontent.Hasher) Option {
	return func(r *Rotator) {
		if h != nil {
			r.hasher = h
		}
	}
}

// WithMinSecretLength sets the minimum accepted secret length
func WithMinSecretLength(n int) Option {
	return func(r *Rotator) {
		if n > 0 {
			r.minLength = n
		}
	}
}

// WithStoreTimeout bounds every credential store call
func WithStoreTimeout(d time.Duration) Option {
	return func(r *Rotator) {
		r.storeTimeout = d
	}
}

// NewRotator creates a Rotator over store.
func NewRotator(store communitycontent.CredentialStore, opts ...Option) *Rotator {
	r := &Rotator{
		store:        store,
		hasher:       NewBcryptHasher(),
		minLength:    DefaultMinSecretLength,
		storeTimeout: communitycontent.DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rotate replaces the calling operator's secret. The current secret must
// verify against the stored hash; a missing operator row is reported as
// ErrInvalidCredential so existence is not revealed. The store swap is a
// compare-and-swap on the hash that was verified, so a concurrent rotation
// makes this one fail with ErrConflict instead of overwriting it.
func (r *Rotator) Rotate(ctx context.Context, principal communitycontent.Principal, current, next string) error {
	if !principal.IsOperator() {
		return communitycontent.ErrUnauthorized
	}
	if len(next) < r.minLength {
		return &communitycontent.ValidationError{
			Field:   "newSecret",
			Message: fmt.Sprintf("must be at least %d characters", r.minLength),
		}
	}
	if len(next) > MaxSecretBytes {
		return &communitycontent.ValidationError{
			Field:   "newSecret",
			Message: fmt.Sprintf("must be at most %d bytes", MaxSecretBytes),
		}
	}

	sctx, cancel := communitycontent.StoreContext(ctx, r.storeTimeout)
	defer cancel()

	cred, err := r.store.GetCredential(sctx, principal.Email)
	if err != nil {
		if errors.Is(err, communitycontent.ErrNotFound) {
			return communitycontent.ErrInvalidCredential
		}
		return communitycontent.StoreFailure("get credential", err)
	}
	if !r.hasher.Verify(cred.PasswordHash, current) {
		slog.Warn("Credential rotation rejected", "operator", principal.Email)
		return communitycontent.ErrInvalidCredential
	}

	newHash, err := r.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := r.store.SwapCredential(sctx, principal.Email, cred.PasswordHash, newHash); err != nil {
		if errors.Is(err, communitycontent.ErrNotFound) {
			return communitycontent.ErrInvalidCredential
		}
		return communitycontent.StoreFailure("swap credential", err)
	}

	slog.Info("Credential rotated", "operator", principal.Email)
	return nil
}
