// Package db connects the agent to Postgres and applies its schema migrations.
package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// SetupDatabase runs pending migrations and opens a gorm connection
func SetupDatabase(logger *logrus.Logger, cfg Config) (*gorm.DB, error) {
	logger.Debug("Starting database setup")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	if err := RunMigrations(logger, cfg); err != nil {
		return nil, err
	}

	logger.Debug("Establishing GORM database connection")

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: NewGormLogrusLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Name,
	}).Info("Database setup completed successfully")
	return db, nil
}

// Close releases the connection pool behind db
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
