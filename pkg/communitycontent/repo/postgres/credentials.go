package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// CredentialStore keeps operator password hashes in the operators table.
type CredentialStore struct {
	db DBTX
}

// NewCredentialStore creates a credential store over db.
func NewCredentialStore(db DBTX) *CredentialStore {
	return &CredentialStore{db: db}
}

// NewCredentialStoreWithPool creates a credential store over a connection pool.
func NewCredentialStoreWithPool(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{db: pool}
}

var _ communitycontent.CredentialStore = (*CredentialStore)(nil)

func (s *CredentialStore) GetCredential(ctx context.Context, email string) (*communitycontent.OperatorCredential, error) {
	query := `SELECT email, password_hash, updated_at FROM operators WHERE email = $1`

	var cred communitycontent.OperatorCredential
	err := s.db.QueryRow(ctx, query, communitycontent.NormalizeEmail(email)).
		Scan(&cred.Email, &cred.PasswordHash, &cred.UpdatedAt)
	if err != nil {
		return nil, handlePostgresError("get credential", err)
	}
	return &cred, nil
}

// SwapCredential is a compare-and-swap on password_hash; the old hash stops
// verifying in the same statement that stores the new one.
func (s *CredentialStore) SwapCredential(ctx context.Context, email, oldHash, newHash string) error {
	query := `
		UPDATE operators SET password_hash = $3, updated_at = NOW()
		WHERE email = $1 AND password_hash = $2`

	tag, err := s.db.Exec(ctx, query, communitycontent.NormalizeEmail(email), oldHash, newHash)
	if err != nil {
		return handlePostgresError("swap credential", err)
	}
	if tag.RowsAffected() == 0 {
		return communitycontent.ErrConflict
	}
	return nil
}
