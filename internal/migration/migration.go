package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var (
	ErrNoDatabase = errors.New("migration_database_required")
	// ErrDirty means an earlier run stopped half way; the schema needs a
	// manual look before hullbook will touch it again.
	ErrDirty = errors.New("migration_dirty")
)

// Result reports the schema version before and after a run.
type Result struct {
	From    uint
	To      uint
	Applied bool
}

// RunMigrations brings the postgres schema up to the newest embedded
// version. The shared *sql.DB is left open.
func RunMigrations(db *sql.DB) (Result, error) {
	if db == nil {
		return Result{}, ErrNoDatabase
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return Result{}, err
	}

	from, dirty, err := schemaVersion(migrator)
	if err != nil {
		return Result{}, err
	}
	if dirty {
		return Result{From: from}, fmt.Errorf("%w: version %d", ErrDirty, from)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{From: from}, fmt.Errorf("apply migrations: %w", err)
	}

	to, _, err := schemaVersion(migrator)
	if err != nil {
		return Result{From: from}, err
	}
	return Result{From: from, To: to, Applied: to != from}, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

// schemaVersion treats a fresh database as version 0.
func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
