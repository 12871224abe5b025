// Package sqlite_test contains integration tests for SQLite repositories.
//
// Tests run against a real database file migrated with the embedded migrations,
// so the schema under test is always the one production uses.
package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/llmtxt/internal/adapters/sqlite"
	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/db"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// setupTestDB creates a migrated database in a temp directory.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// baseTime anchors seeded timestamps.
var baseTime = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

// seedHistory inserts an entry and returns its ID.
func seedHistory(t *testing.T, repo *sqlite.HistoryRepository, owner, url, kind, summarized, full, filePath string, createdAt time.Time) int64 {
	t.Helper()
	fp := history.NewFingerprint(summarized, full)
	id, err := repo.Create(context.Background(), &secondary.HistoryRecord{
		OwnerID:           owner,
		SourceURL:         url,
		OutputKind:        kind,
		SummarizedContent: summarized,
		FullContent:       full,
		FilePath:          filePath,
		ContentHash:       fp.Hash,
		ContentLength:     fp.Length,
		ContentPrefix:     fp.Prefix,
		CreatedAt:         createdAt,
	})
	if err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}
	return id
}
