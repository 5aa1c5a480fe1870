package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/uptrace/bun"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var coreMigrations embed.FS

// MigrationOperation represents the type of migration operation
type MigrationOperation int

const (
	MigrateUpOperation MigrationOperation = iota
	MigrateDownOperation
)

// migrationRunner encapsulates the common migration execution logic
type migrationRunner struct {
	logger   *slog.Logger
	provider *goose.Provider
}

// newMigrationRunner creates a new migration runner for the given dialect
func newMigrationRunner(
	db bun.IDB,
	sqlFs embed.FS,
	migrationsDir string,
	provider string,
	verbose bool,
) (*migrationRunner, error) {
	subFs, err := fs.Sub(sqlFs, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create sub filesystem: %w", err)
	}

	dialect, err := getDialect(provider)
	if err != nil {
		return nil, err
	}

	sqlDB := getSQLDB(db)
	if sqlDB == nil {
		return nil, fmt.Errorf("failed to get *sql.DB from bun.IDB")
	}

	providerInstance, err := goose.NewProvider(dialect, sqlDB, subFs, goose.WithVerbose(verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}

	return &migrationRunner{
		provider: providerInstance,
	}, nil
}

// run executes the migration operation and logs results
func (r *migrationRunner) run(ctx context.Context, op MigrationOperation) error {
	var results []*goose.MigrationResult
	var err error

	switch op {
	case MigrateUpOperation:
		results, err = r.provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		for _, result := range results {
			r.logMigration(result, "Migrated")
		}
	case MigrateDownOperation:
		results, err = r.provider.DownTo(ctx, 0)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		for _, result := range results {
			r.logMigration(result, "Rolled back")
		}
	}

	return nil
}

func (r *migrationRunner) logMigration(result *goose.MigrationResult, action string) {
	if r.logger != nil {
		r.logger.Info(fmt.Sprintf("%s: %s (%s)", action, result.Source.Path, result.Duration))
	}
}

// RunCoreMigrations runs the core database migrations
func RunCoreMigrations(
	ctx context.Context,
	logger *slog.Logger,
	logLevel string,
	provider string,
	db bun.IDB,
) error {
	runner, err := newMigrationRunner(db, coreMigrations, "migrations/"+provider, provider, logLevel == "debug")
	if err != nil {
		return err
	}
	runner.logger = logger

	return runner.run(ctx, MigrateUpOperation)
}

// DropCoreMigrations rolls back all core database migrations
func DropCoreMigrations(
	ctx context.Context,
	logger *slog.Logger,
	logLevel string,
	provider string,
	db bun.IDB,
) error {
	runner, err := newMigrationRunner(db, coreMigrations, "migrations/"+provider, provider, logLevel == "debug")
	if err != nil {
		return err
	}
	runner.logger = logger

	return runner.run(ctx, MigrateDownOperation)
}

// getDialect maps provider string to goose dialect
func getDialect(provider string) (database.Dialect, error) {
	switch provider {
	case "postgres":
		return goose.DialectPostgres, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database provider: %s", provider)
	}
}

// getSQLDB extracts *sql.DB from bun.IDB
func getSQLDB(db bun.IDB) *sql.DB {
	if bunDB, ok := db.(*bun.DB); ok {
		return bunDB.DB
	}
	return nil
}
