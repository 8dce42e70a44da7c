package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// ErrDirtySchema means a migration failed partway and the schema needs manual repair
// (fix it, then `migrate force <version>`) before the agent can use it.
var ErrDirtySchema = errors.New("database schema is dirty")

// RunMigrations executes database migrations
func RunMigrations(logger *logrus.Logger, cfg Config) error {
	m, source, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	logger.WithField("migrations_path", source).Debug("Running database migrations")

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationStatus returns the current migration version and dirty state
func MigrationStatus(logger *logrus.Logger, cfg Config) (uint, bool, error) {
	logger.Debug("Checking migration status")

	m, _, err := newMigrator(cfg)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Debug("Migration status retrieved")

	return version, dirty, nil
}

// CheckSchema reports the applied migration version and fails when the schema is
// dirty. Version 0 means no migration has been applied yet.
func CheckSchema(logger *logrus.Logger, cfg Config) (uint, error) {
	version, dirty, err := MigrationStatus(logger, cfg)
	if err != nil {
		return 0, err
	}
	if err := schemaState(version, dirty); err != nil {
		return version, err
	}

	logger.WithField("version", version).Info("Database schema checked")
	return version, nil
}

func schemaState(version uint, dirty bool) error {
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return nil
}

func newMigrator(cfg Config) (*migrate.Migrate, string, error) {
	source, err := cfg.migrationsSource()
	if err != nil {
		return nil, "", fmt.Errorf("failed to locate migrations: %w", err)
	}

	m, err := migrate.New(source, cfg.URL())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, source, nil
}
