package app

import (
	"context"
	"fmt"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/ctxutil"
	"github.com/example/llmtxt/internal/ports/primary"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// DefaultHistoryLimit caps GetHistory.
const DefaultHistoryLimit = 50

// HistoryServiceImpl implements the HistoryService interface.
type HistoryServiceImpl struct {
	repo        secondary.HistoryRepository
	coordinator *DeletionCoordinator
	limit       int
}

// NewHistoryService creates a new HistoryService with injected dependencies.
// A non-positive limit selects DefaultHistoryLimit.
func NewHistoryService(repo secondary.HistoryRepository, coordinator *DeletionCoordinator, limit int) *HistoryServiceImpl {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryServiceImpl{
		repo:        repo,
		coordinator: coordinator,
		limit:       limit,
	}
}

// GetHistory lists the caller's entries, most recent first.
func (s *HistoryServiceImpl) GetHistory(ctx context.Context) ([]*primary.HistoryEntry, error) {
	if err := requireManage(ctx); err != nil {
		return nil, err
	}

	records, err := s.repo.ListByOwner(ctx, ctxutil.OwnerFromContext(ctx), s.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}

	entries := make([]*primary.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = s.recordToEntry(r)
	}
	return entries, nil
}

// GetHistoryItem retrieves one of the caller's entries.
func (s *HistoryServiceImpl) GetHistoryItem(ctx context.Context, id int64) (*primary.HistoryEntry, error) {
	if err := requireManage(ctx); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid history ID %d", apperr.ErrValidation, id)
	}

	record, err := s.repo.GetByID(ctx, id, ctxutil.OwnerFromContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}
	if record == nil {
		return nil, fmt.Errorf("history item %d: %w", id, apperr.ErrNotFound)
	}
	return s.recordToEntry(record), nil
}

// DeleteHistoryItem deletes one of the caller's entries and its files.
func (s *HistoryServiceImpl) DeleteHistoryItem(ctx context.Context, id int64) (*primary.DeleteResponse, error) {
	if err := requireManage(ctx); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid history ID %d", apperr.ErrValidation, id)
	}
	return s.coordinator.Delete(ctx, id, ctxutil.OwnerFromContext(ctx))
}

func (s *HistoryServiceImpl) recordToEntry(r *secondary.HistoryRecord) *primary.HistoryEntry {
	return &primary.HistoryEntry{
		ID:                r.ID,
		SourceURL:         r.SourceURL,
		OutputKind:        r.OutputKind,
		SummarizedContent: r.SummarizedContent,
		FullContent:       r.FullContent,
		FilePaths:         artifact.ParsePathList(r.FilePath).Paths(),
		CreatedAt:         r.CreatedAt,
	}
}

// Ensure HistoryServiceImpl implements the interface
var _ primary.HistoryService = (*HistoryServiceImpl)(nil)
