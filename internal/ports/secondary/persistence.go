// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"

	"github.com/example/llmtxt/internal/core/history"
)

// HistoryRepository defines the secondary port for generation history persistence.
// Every query is scoped to an owner.
type HistoryRepository interface {
	// Create persists a new entry and returns its ID.
	Create(ctx context.Context, record *HistoryRecord) (int64, error)

	// FindDuplicate returns the most recent entry matching the criteria, or nil if none does.
	FindDuplicate(ctx context.Context, criteria history.Criteria) (*HistoryRecord, error)

	// GetByID retrieves an entry by ID for the owner. Returns nil, nil when absent.
	GetByID(ctx context.Context, id int64, ownerID string) (*HistoryRecord, error)

	// ListByOwner returns the owner's entries, most recent first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*HistoryRecord, error)

	// FindReconcileCandidate returns the most recent entry of the owner whose file
	// path mentions originalPath or originalName, created before Before,
	// that does not already mention backupName. Returns nil, nil when none does.
	FindReconcileCandidate(ctx context.Context, q ReconcileQuery) (*HistoryRecord, error)

	// UpdateFilePath replaces the stored file path of an entry.
	UpdateFilePath(ctx context.Context, id int64, ownerID, filePath string) error

	// CountNewerReferencing counts the owner's entries other than excludeID created
	// after the given time whose file path mentions filename.
	CountNewerReferencing(ctx context.Context, ownerID string, excludeID int64, after time.Time, filename string) (int, error)

	// Delete removes an entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, id int64, ownerID string) error
}

// HistoryRecord represents a generation history entry as stored in persistence.
type HistoryRecord struct {
	ID                int64
	OwnerID           string
	SourceURL         string
	OutputKind        string // summary, full or both
	SummarizedContent string
	FullContent       string
	FilePath          string // paths joined with ", "
	ContentHash       string
	ContentLength     int
	ContentPrefix     string
	CreatedAt         time.Time
}

// ReconcileQuery selects the entry a fresh backup should be attributed to.
type ReconcileQuery struct {
	OwnerID      string
	OriginalPath string
	OriginalName string
	BackupName   string
	Before       time.Time
}
