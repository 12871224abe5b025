// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the UI layer, the CLI and the HTTP API drive the core.
package primary

import "context"

// ArtifactService defines the primary port for canonical artifact operations.
type ArtifactService interface {
	// CheckFilesExist reports which canonical files of the kind already exist.
	CheckFilesExist(ctx context.Context, kind string) (*FilesExistResponse, error)

	// SaveToRoot writes generated content into the document root, backing up
	// existing files when the overwrite was confirmed, and records history.
	SaveToRoot(ctx context.Context, req SaveRequest) (*SaveResponse, error)
}

// FilesExistResponse lists the canonical names that already exist.
type FilesExistResponse struct {
	Exists bool
	Names  []string
}

// SaveRequest contains parameters for saving artifacts to the document root.
type SaveRequest struct {
	Kind             string // summary, full, both (legacy llms_* names accepted)
	ConfirmOverwrite bool
	SourceURL        string
	Content          string // summary or full saves
	Summarized       string // both saves
	Full             string // both saves
}

// SaveResponse contains the result of a save.
type SaveResponse struct {
	Message        string
	FilesSaved     []SavedFile
	BackupsCreated []string
	HistoryID      int64 // 0 when history could not be recorded
	Errors         []string
	Warnings       []string
}

// SavedFile describes one artifact written during a save.
type SavedFile struct {
	Name string
	URL  string
	Path string
}
