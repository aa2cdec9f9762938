package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending migration and returns the schema version
// before and after.
func Migrate(db *sql.DB) (from, to uint, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, 0, err
	}

	from, err = version(m)
	if err != nil {
		return 0, 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return from, 0, fmt.Errorf("applying migrations: %w", err)
	}

	to, err = version(m)
	if err != nil {
		return from, 0, err
	}

	slog.Info("migration status", "from", from, "to", to)

	return from, to, nil
}

// Rollback reverts the last applied migration.
func Rollback(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("reverting migration: %w", err)
	}

	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	return m, nil
}

func version(m *migrate.Migrate) (uint, error) {
	v, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	return v, nil
}
