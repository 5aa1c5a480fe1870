package repositories

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/env"
	"github.com/vuhnger/backend/internal/bootstrap"
	"github.com/vuhnger/backend/internal/migrations"
)

// openTestDB creates a fresh migrated SQLite database in a temp directory.
// A single connection keeps concurrent-write tests free of SQLITE_BUSY
// noise while still exercising the real conflict clause.
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	t.Setenv(env.EnvDatabaseURL, "")

	db, err := bootstrap.InitDatabase(bootstrap.DatabaseOptions{
		Provider:     "sqlite",
		URL:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunCoreMigrations(context.Background(), slog.Default(), "", "sqlite", db))
	return db
}
