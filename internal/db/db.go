// Package db opens the history database and owns its schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMillis lets concurrent writers wait on each other instead of failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

// DSN returns the go-sqlite3 connection string for the database file at path.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on", path, busyTimeoutMillis)
}

// Open opens the database at path, creating its directory if needed, and
// applies any pending migrations.
func Open(path string) (*sql.DB, error) {
	database, err := Connect(path)
	if err != nil {
		return nil, err
	}

	if err := Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// Connect opens the database at path without touching its schema.
func Connect(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return database, nil
}
