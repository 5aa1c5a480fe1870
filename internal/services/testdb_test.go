package services

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
