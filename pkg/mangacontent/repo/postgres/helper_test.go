package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testSchema = "manga_test"

// testDB represents a migrated test database connection
type testDB struct {
	Pool *pgxpool.Pool
}

// newTestDB connects to TEST_DATABASE_URL and applies the migrations
func newTestDB(t *testing.T) *testDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, connString, testSchema), "Failed to migrate test database")

	cfg, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)
	cfg.AfterConnect = SearchPath(testSchema)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	db := &testDB{Pool: pool}
	db.cleanup(t)
	t.Cleanup(func() {
		db.cleanup(t)
		pool.Close()
	})
	return db
}

func (db *testDB) cleanup(t *testing.T) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), "TRUNCATE manga, users")
	require.NoError(t, err, "Failed to truncate tables")
}
