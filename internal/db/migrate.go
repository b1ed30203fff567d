package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// newMigrate builds a migrator over an open connection. The returned
// instance must not be closed: closing it closes conn.
func newMigrate(conn *sql.DB, driver string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var instance database.Driver
	switch driver {
	case DriverSQLite:
		instance, err = sqlite3.WithInstance(conn, &sqlite3.Config{})
	case DriverPostgres:
		instance, err = postgres.WithInstance(conn, &postgres.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func MigrateUp(conn *sql.DB, driver string) error {
	m, err := newMigrate(conn, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	dbLogger.Info().
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Migrations completed")
	return nil
}

// MigrateDown rolls back the last applied migration.
func MigrateDown(conn *sql.DB, driver string) error {
	m, err := newMigrate(conn, driver)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	dbLogger.Info().Msg("Migration rolled back")
	return nil
}

// MigrationVersion reports the applied version. A fresh database reports 0.
func MigrationVersion(conn *sql.DB, driver string) (uint, bool, error) {
	m, err := newMigrate(conn, driver)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
