package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type MigrateOptions struct {
	Direction  string // up or down
	Steps      int    // 0 = all
	Force      int    // >= 0 sets the version and exits
	ForceDirty bool
}

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
}

// Replaced in tests so no postgres is needed.
var withPostgresInstance = func(db *sql.DB) (migratedb.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{})
}

var newSource = func() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

var newMigrateWithInstance = func(src source.Driver, driver migratedb.Driver) (migrator, error) {
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}

var newMigrator = func(db *sql.DB) (migrator, error) {
	src, err := newSource()
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := withPostgresInstance(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := newMigrateWithInstance(src, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies the embedded migrations and returns a human readable outcome.
func Migrate(db *sql.DB, o MigrateOptions) (string, error) {
	if o.Direction == "" {
		o.Direction = "up"
	}
	if o.Direction != "up" && o.Direction != "down" {
		return "", fmt.Errorf("invalid direction: %s (must be 'up' or 'down')", o.Direction)
	}

	m, err := newMigrator(db)
	if err != nil {
		return "", err
	}

	if o.ForceDirty {
		v, dirty, err := m.Version()
		if err != nil {
			return "", fmt.Errorf("failed to read migration version: %w", err)
		}
		if !dirty {
			return "Database is not dirty (no force needed)", nil
		}
		if err := m.Force(int(v)); err != nil {
			return "", fmt.Errorf("failed to force dirty version %d: %w", v, err)
		}
		return fmt.Sprintf("Forced dirty database to version %d", v), nil
	}
	if o.Force >= 0 {
		if err := m.Force(o.Force); err != nil {
			return "", fmt.Errorf("failed to force version %d: %w", o.Force, err)
		}
		return fmt.Sprintf("Forced database to version %d", o.Force), nil
	}

	err = applyDirection(m, o.Direction, o.Steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return "No migrations to apply", nil
	}
	if err != nil {
		return "", fmt.Errorf("migration failed: %w", err)
	}
	return fmt.Sprintf("Migration %s completed successfully", o.Direction), nil
}

func applyDirection(m migrator, direction string, steps int) error {
	switch direction {
	case "up":
		if steps > 0 {
			return m.Steps(steps)
		}
		return m.Up()
	case "down":
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	default:
		return fmt.Errorf("invalid direction: %s (must be 'up' or 'down')", direction)
	}
}
