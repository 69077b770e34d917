// Package migrations applies the versioned SQL files under migrations/ with
// golang-migrate. Deployed environments use it instead of gorm AutoMigrate.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	defaultDir   = "migrations"
	defaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

// Swapped in tests.
var (
	driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
	}
	migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
		return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	}
)

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

// State is the schema version recorded in the migrations table.
type State struct {
	Version uint
	Dirty   bool
	// Applied is false on a database no migration has touched yet.
	Applied bool
}

func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = defaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = defaultTable
	}
	return cfg
}

func (cfg Config) log(warn bool, msg string, args ...any) {
	switch {
	case cfg.Logger == nil:
	case warn:
		cfg.Logger.Warn(msg, args...)
	default:
		cfg.Logger.Info(msg, args...)
	}
}

// sourceURL turns dir into a file:// URL; ToSlash keeps it valid on Windows
// and url.URL escapes spaces.
func sourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	return apply(ctx, db, cfg, "up", func(m migrator) error { return m.Up() })
}

// Down rolls back the given number of applied migrations.
func Down(ctx context.Context, db *sql.DB, cfg Config, steps int) error {
	if steps < 1 {
		return fmt.Errorf("migrations: down requires at least one step, got %d", steps)
	}
	return apply(ctx, db, cfg, "down", func(m migrator) error { return m.Steps(-steps) })
}

// Status reads the current schema version without changing anything.
func Status(ctx context.Context, db *sql.DB, cfg Config) (State, error) {
	var state State

	err := withMigrator(ctx, db, cfg, func(m migrator) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: version: %w", err)
		}
		state = State{Version: version, Dirty: dirty, Applied: true}
		return nil
	})
	return state, err
}

func apply(ctx context.Context, db *sql.DB, cfg Config, direction string, step func(migrator) error) error {
	return withMigrator(ctx, db, cfg, func(m migrator) error {
		cfg := cfg.withDefaults()
		cfg.log(false, "Running SQL migrations", "direction", direction, "dir", cfg.Dir, "table", cfg.MigrationsTable)

		if err := step(m); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				cfg.log(false, "No migrations to apply")
				return nil
			}
			return fmt.Errorf("migrations: %s: %w", direction, err)
		}

		if version, dirty, err := m.Version(); err == nil {
			cfg.log(false, "Migrations applied", "version", version, "dirty", dirty)
		}
		return nil
	})
}

// withMigrator opens a migrator, runs fn on its own goroutine and closes the
// migrator when fn returns or ctx ends. golang-migrate takes no context, so
// closing it is the only way to interrupt a running step.
func withMigrator(ctx context.Context, db *sql.DB, cfg Config, fn func(migrator) error) error {
	if db == nil {
		return errors.New("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	src, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(src, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var once sync.Once
	closeMigrator := func() {
		once.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.log(true, "Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.log(true, "Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	done := make(chan error, 1)
	go func() { done <- fn(m) }()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-done:
		return err
	}
}
