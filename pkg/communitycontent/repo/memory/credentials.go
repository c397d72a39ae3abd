package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/community-content/pkg/communitycontent"
)

// CredentialStore is an in-memory communitycontent.CredentialStore.
type CredentialStore struct {
	mu     sync.Mutex
	hashes map[string]communitycontent.OperatorCredential
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{hashes: make(map[string]communitycontent.OperatorCredential)}
}

var _ communitycontent.CredentialStore = (*CredentialStore)(nil)

// Put sets the stored hash for an operator, replacing any previous value.
func (s *CredentialStore) Put(email, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = communitycontent.NormalizeEmail(email)
	s.hashes[email] = communitycontent.OperatorCredential{Email: email, PasswordHash: hash, UpdatedAt: time.Now().UTC()}
}

func (s *CredentialStore) GetCredential(ctx context.Context, email string) (*communitycontent.OperatorCredential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.hashes[communitycontent.NormalizeEmail(email)]
	if !ok {
		return nil, communitycontent.ErrNotFound
	}
	return &cred, nil
}

func (s *CredentialStore) SwapCredential(ctx context.Context, email, oldHash, newHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email = communitycontent.NormalizeEmail(email)
	cred, ok := s.hashes[email]
	if !ok {
		return communitycontent.ErrNotFound
	}
	if cred.PasswordHash != oldHash {
		return communitycontent.ErrConflict
	}
	cred.PasswordHash = newHash
	cred.UpdatedAt = time.Now().UTC()
	s.hashes[email] = cred
	return nil
}
