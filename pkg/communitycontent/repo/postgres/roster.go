package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// Roster reads the externally owned users table. It never writes.
type Roster struct {
	db DBTX
}

// NewRoster creates a roster reader over db.
func NewRoster(db DBTX) *Roster {
	return &Roster{db: db}
}

// NewRosterWithPool creates a roster reader over a connection pool.
func NewRosterWithPool(pool *pgxpool.Pool) *Roster {
	return &Roster{db: pool}
}

var _ communitycontent.RosterSource = (*Roster)(nil)

// Find matches pattern against the email column with ILIKE. An empty pattern
// matches every row; '%' and '_' in the pattern are escaped.
func (r *Roster) Find(ctx context.Context, pattern string) ([]communitycontent.RosterEntry, error) {
	query := `
		SELECT id::text, LOWER(email), COALESCE(display_name, ''), created_at
		FROM users
		WHERE email ILIKE $1
		ORDER BY created_at DESC, id`

	like := "%" + escapeLike(communitycontent.NormalizeEmail(pattern)) + "%"
	rows, err := r.db.Query(ctx, query, like)
	if err != nil {
		return nil, handlePostgresError("find roster entries", err)
	}
	defer rows.Close()

	entries := make([]communitycontent.RosterEntry, 0)
	for rows.Next() {
		var e communitycontent.RosterEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.DisplayName, &e.CreatedAt); err != nil {
			return nil, handlePostgresError("scan roster entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("find roster entries", err)
	}
	return entries, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
