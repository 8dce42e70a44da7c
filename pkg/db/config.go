package db

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Config holds the Postgres connection settings for the operation journal
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// MigrationsDir overrides the migrations directory. Empty means <project root>/migrations.
	MigrationsDir string
}

// ConfigFromEnv reads DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE
// and MIGRATIONS_DIR.
func ConfigFromEnv() Config {
	cfg := Config{
		Host:          os.Getenv("DB_HOST"),
		Port:          os.Getenv("DB_PORT"),
		User:          os.Getenv("DB_USER"),
		Password:      os.Getenv("DB_PASSWORD"),
		Name:          os.Getenv("DB_NAME"),
		SSLMode:       os.Getenv("DB_SSLMODE"),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// Enabled reports whether a database was configured at all
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Validate checks the fields needed to connect
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	return nil
}

// DSN is the key=value connection string used by the gorm postgres driver
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// URL is the postgres:// form golang-migrate expects
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// migrationsSource returns the file:// source URL for the migrations directory
func (c Config) migrationsSource() (string, error) {
	dir := c.MigrationsDir
	if dir == "" {
		root, err := findProjectRoot()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, "migrations")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// findProjectRoot looks for go.mod file to determine project root
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod)")
		}
		dir = parent
	}
}
