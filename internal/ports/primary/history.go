package primary

import (
	"context"
	"time"
)

// HistoryService defines the primary port for generation history operations.
type HistoryService interface {
	// GetHistory lists the caller's entries, most recent first.
	GetHistory(ctx context.Context) ([]*HistoryEntry, error)

	// GetHistoryItem retrieves one of the caller's entries.
	GetHistoryItem(ctx context.Context, id int64) (*HistoryEntry, error)

	// DeleteHistoryItem deletes an entry and the files it alone still references.
	DeleteHistoryItem(ctx context.Context, id int64) (*DeleteResponse, error)
}

// HistoryEntry represents a generation history entry at the port boundary.
type HistoryEntry struct {
	ID                int64
	SourceURL         string
	OutputKind        string
	SummarizedContent string
	FullContent       string
	FilePaths         []string
	CreatedAt         time.Time
}

// DeleteResponse contains the per-file outcome of a history deletion.
type DeleteResponse struct {
	Message      string
	FilesDeleted []string
	FilesFailed  []string
}
