package bootstrap

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/vuhnger/backend/env"
	"github.com/vuhnger/backend/models"
)

// DatabaseOptions configures database initialization
type DatabaseOptions struct {
	Provider        string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OptionsFromConfig maps the service configuration onto DatabaseOptions.
func OptionsFromConfig(cfg models.DatabaseConfig) DatabaseOptions {
	return DatabaseOptions{
		Provider:        cfg.Provider,
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

// InitDatabase creates a Bun database connection
func InitDatabase(opts DatabaseOptions, logLevel string) (*bun.DB, error) {
	if opts.Provider == "" {
		return nil, fmt.Errorf("database provider must be specified")
	}

	databaseURL := os.Getenv(env.EnvDatabaseURL)
	if databaseURL == "" {
		if opts.URL == "" {
			return nil, fmt.Errorf("database connection string must be specified via %s or config", env.EnvDatabaseURL)
		}
		databaseURL = opts.URL
	}

	var (
		sqlDB *sql.DB
		err   error
	)

	switch opts.Provider {
	case "sqlite":
		if !filepath.IsAbs(databaseURL) {
			cwd, _ := os.Getwd()
			databaseURL = filepath.Join(cwd, databaseURL)
		}

		dbDir := filepath.Dir(databaseURL)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		sqlDB, err = sql.Open("sqlite3", databaseURL+"?_busy_timeout=5000&_journal_mode=WAL")
		if err != nil {
			return nil, err
		}

		db := bun.NewDB(sqlDB, sqlitedialect.New())
		configurePool(sqlDB, opts)
		enableDebugging(db, logLevel)
		return db, nil

	case "postgres":
		sqlDB, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, err
		}

		db := bun.NewDB(sqlDB, pgdialect.New())
		configurePool(sqlDB, opts)
		enableDebugging(db, logLevel)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database provider: %s", opts.Provider)
	}
}

func configurePool(sqlDB *sql.DB, opts DatabaseOptions) {
	maxOpen := opts.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 4 * runtime.GOMAXPROCS(0)
	}
	sqlDB.SetMaxOpenConns(maxOpen)

	maxIdle := opts.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = maxOpen
	}
	sqlDB.SetMaxIdleConns(maxIdle)

	if opts.ConnMaxLifetime != 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
}

func enableDebugging(db *bun.DB, logLevel string) {
	if logLevel == "debug" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
}
