package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements communitycontent.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var _ communitycontent.Repository = (*Repository)(nil)

// Error handling helper
func handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return communitycontent.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: duplicate key on %s", communitycontent.ErrConflict, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return &communitycontent.ValidationError{Field: pgErr.ColumnName, Message: "is required"}
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const itemColumns = `id, kind, title, links, author_email, is_approved,
	COALESCE(note_subject, ''), COALESCE(note_unit, ''),
	COALESCE(tech_stack, '{}'), COALESCE(description, ''),
	metadata, created_at, updated_at`

func scanItem(row pgx.Row) (*communitycontent.Item, error) {
	var (
		item        communitycontent.Item
		kind        string
		subject     string
		unit        string
		techStack   []string
		description string
	)
	err := row.Scan(
		&item.ID, &kind, &item.Title, &item.Links, &item.AuthorEmail, &item.IsApproved,
		&subject, &unit, &techStack, &description,
		&item.Metadata, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.Kind = communitycontent.Kind(kind)
	switch item.Kind {
	case communitycontent.KindNote:
		item.Note = &communitycontent.NoteFields{Subject: subject, Unit: unit}
	case communitycontent.KindProject:
		item.Project = &communitycontent.ProjectFields{TechStack: techStack, Description: description}
	}
	return &item, nil
}

// Item operations

func (r *Repository) InsertItem(ctx context.Context, item *communitycontent.Item) error {
	query := `
		INSERT INTO items (
			id, kind, title, links, author_email, is_approved,
			note_subject, note_unit, tech_stack, description,
			metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var subject, unit, description *string
	var techStack []string
	if item.Note != nil {
		subject, unit = &item.Note.Subject, &item.Note.Unit
	}
	if item.Project != nil {
		techStack, description = item.Project.TechStack, &item.Project.Description
	}

	_, err := r.db.Exec(ctx, query,
		item.ID, string(item.Kind), item.Title, item.Links, item.AuthorEmail, item.IsApproved,
		subject, unit, techStack, description,
		item.Metadata, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return handlePostgresError("insert item", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*communitycontent.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("get item", err)
	}
	return item, nil
}

func (r *Repository) ListItems(ctx context.Context, filter communitycontent.ItemFilter) ([]*communitycontent.Item, error) {
	where, args := buildItemWhereClause(filter)
	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + where + ` ORDER BY created_at DESC, id ASC`

	argIndex := len(args) + 1
	if filter.Limit != nil && *filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *filter.Limit)
		argIndex++
	}
	if filter.Offset != nil && *filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, *filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError("list items", err)
	}
	defer rows.Close()

	items := make([]*communitycontent.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, handlePostgresError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list items", err)
	}
	return items, nil
}

// UpdateApproval flips is_approved with a conditional UPDATE, so of two
// concurrent callers only the one whose statement matched the row reports a
// change. When nothing matched the current row is read back.
func (r *Repository) UpdateApproval(ctx context.Context, id uuid.UUID, approved bool) (*communitycontent.Item, bool, error) {
	query := `
		UPDATE items SET is_approved = $2, updated_at = NOW()
		WHERE id = $1 AND is_approved <> $2
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, id, approved))
	if err == nil {
		return item, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, handlePostgresError("update approval", err)
	}

	current, err := r.GetItem(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// DeleteItem removes the row. Of two concurrent deletes only one sees a
// non-zero row count.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return communitycontent.ErrNotFound
	}
	return nil
}

// DeletePendingItem deletes the row only while is_approved is false. A zero
// row count is then classified by checking whether the id still exists.
func (r *Repository) DeletePendingItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1 AND NOT is_approved`, id)
	if err != nil {
		return handlePostgresError("delete pending item", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return handlePostgresError("delete pending item", err)
	}
	if exists {
		return fmt.Errorf("%w: item is approved", communitycontent.ErrInvalidTransition)
	}
	return communitycontent.ErrNotFound
}

// GroupItems runs one GROUP BY statement, so every bucket comes from the same
// snapshot.
func (r *Repository) GroupItems(ctx context.Context, keys ...communitycontent.GroupKey) ([]communitycontent.ItemGroup, error) {
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

	kindCol, authorCol := "''", "''"
	var groupCols []string
	if byKind {
		kindCol = "kind"
		groupCols = append(groupCols, "kind")
	}
	if byAuthor {
		authorCol = "author_email"
		groupCols = append(groupCols, "author_email")
	}

	query := fmt.Sprintf(
		"SELECT %s, %s, COUNT(*), COUNT(*) FILTER (WHERE NOT is_approved) FROM items",
		kindCol, authorCol)
	if len(groupCols) > 0 {
		cols := strings.Join(groupCols, ", ")
		query += " GROUP BY " + cols + " ORDER BY " + cols
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("group items", err)
	}
	defer rows.Close()

	groups := make([]communitycontent.ItemGroup, 0)
	for rows.Next() {
		var g communitycontent.ItemGroup
		var kind string
		if err := rows.Scan(&kind, &g.AuthorEmail, &g.Total, &g.Pending); err != nil {
			return nil, handlePostgresError("scan group", err)
		}
		g.Kind = communitycontent.Kind(kind)
		if len(groupCols) == 0 && g.Total == 0 {
			continue
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("group items", err)
	}
	return groups, nil
}

// buildItemWhereClause builds the WHERE clause for item listing
func buildItemWhereClause(filter communitycontent.ItemFilter) (string, []interface{}) {
	where := "1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Approved != nil {
		where += fmt.Sprintf(" AND is_approved = $%d", argIndex)
		args = append(args, *filter.Approved)
		argIndex++
	}
	if filter.Kind != nil {
		where += fmt.Sprintf(" AND kind = $%d", argIndex)
		args = append(args, string(*filter.Kind))
		argIndex++
	}
	if filter.AuthorEmail != "" {
		where += fmt.Sprintf(" AND author_email = $%d", argIndex)
		args = append(args, communitycontent.NormalizeEmail(filter.AuthorEmail))
	}

	return where, args
}
