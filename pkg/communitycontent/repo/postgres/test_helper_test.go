package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/tendant/community-content/pkg/communitycontent/repo/postgres"
)

// newTestPool connects to TEST_DATABASE_URL, skipping the test when it is not
// set, and returns a pool with empty tables.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	_, err = pool.Exec(ctx, postgres.Schema)
	require.NoError(t, err, "Failed to create schema")
	_, err = pool.Exec(ctx, "TRUNCATE items, users, operators")
	require.NoError(t, err, "Failed to truncate tables")

	return pool
}
