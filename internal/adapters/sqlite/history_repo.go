// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// historyColumns is the column list every history query selects, in scan order.
const historyColumns = "id, owner_id, source_url, output_kind, summarized_content, full_content, file_path, content_hash, content_length, content_prefix, created_at"

// HistoryRepository implements secondary.HistoryRepository with SQLite.
// created_at is stored as Unix microseconds so window comparisons stay exact.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create persists a new entry.
func (r *HistoryRepository) Create(ctx context.Context, record *secondary.HistoryRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO generation_history (owner_id, source_url, output_kind, summarized_content, full_content, file_path, content_hash, content_length, content_prefix, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		record.OwnerID, record.SourceURL, record.OutputKind, record.SummarizedContent, record.FullContent, record.FilePath,
		record.ContentHash, record.ContentLength, record.ContentPrefix, record.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history entry id: %w", err)
	}
	record.ID = id
	return id, nil
}

// FindDuplicate returns the most recent entry matching the criteria.
func (r *HistoryRepository) FindDuplicate(ctx context.Context, c history.Criteria) (*secondary.HistoryRecord, error) {
	var where []string
	args := []any{}

	where = append(where, "owner_id = ?", "source_url = ?", "output_kind = ?")
	args = append(args, c.Scope.OwnerID, c.Scope.SourceURL, c.Scope.Kind)

	if c.Hash != "" {
		where = append(where, "content_hash = ?")
		args = append(args, c.Hash)
	}
	if c.MatchLength {
		where = append(where, "content_length = ?")
		args = append(args, c.Length)
	}
	if c.Prefix != "" {
		where = append(where, "content_prefix = ?")
		args = append(args, c.Prefix)
	}
	if !c.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, c.Since.UnixMicro())
	}

	query := "SELECT " + historyColumns + " FROM generation_history WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, id DESC LIMIT 1"

	record, err := scanHistory(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate history entry: %w", err)
	}
	return record, nil
}

// GetByID retrieves an entry by its ID for the owner.
func (r *HistoryRepository) GetByID(ctx context.Context, id int64, ownerID string) (*secondary.HistoryRecord, error) {
	record, err := scanHistory(r.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM generation_history WHERE id = ? AND owner_id = ?",
		id, ownerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return record, nil
}

// ListByOwner returns the owner's entries, most recent first.
func (r *HistoryRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*secondary.HistoryRecord, error) {
	query := "SELECT " + historyColumns + " FROM generation_history WHERE owner_id = ? ORDER BY created_at DESC, id DESC"
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*secondary.HistoryRecord
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return records, nil
}

// FindReconcileCandidate returns the entry a fresh backup should be attributed to.
// Matching uses instr rather than LIKE so underscores in filenames stay literal.
func (r *HistoryRepository) FindReconcileCandidate(ctx context.Context, q secondary.ReconcileQuery) (*secondary.HistoryRecord, error) {
	record, err := scanHistory(r.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM generation_history"+
			" WHERE owner_id = ?"+
			" AND (instr(file_path, ?) > 0 OR instr(file_path, ?) > 0)"+
			" AND instr(file_path, ?) = 0"+
			" AND created_at < ?"+
			" ORDER BY created_at DESC, id DESC LIMIT 1",
		q.OwnerID, q.OriginalName, q.OriginalPath, q.BackupName, q.Before.UnixMicro(),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reconcile candidate: %w", err)
	}
	return record, nil
}

// UpdateFilePath replaces the stored file path of an entry.
func (r *HistoryRepository) UpdateFilePath(ctx context.Context, id int64, ownerID, filePath string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE generation_history SET file_path = ? WHERE id = ? AND owner_id = ?",
		filePath, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update history file path: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("history entry %d not found", id)
	}

	return nil
}

// CountNewerReferencing counts the owner's other entries created after the given
// time whose file path mentions filename.
func (r *HistoryRepository) CountNewerReferencing(ctx context.Context, ownerID string, excludeID int64, after time.Time, filename string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM generation_history WHERE owner_id = ? AND id != ? AND created_at > ? AND instr(file_path, ?) > 0",
		ownerID, excludeID, after.UnixMicro(), filename,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count newer history entries: %w", err)
	}
	return count, nil
}

// Delete removes an entry.
func (r *HistoryRepository) Delete(ctx context.Context, id int64, ownerID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM generation_history WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*secondary.HistoryRecord, error) {
	var (
		record    secondary.HistoryRecord
		createdAt int64
	)
	err := row.Scan(&record.ID, &record.OwnerID, &record.SourceURL, &record.OutputKind,
		&record.SummarizedContent, &record.FullContent, &record.FilePath,
		&record.ContentHash, &record.ContentLength, &record.ContentPrefix, &createdAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = time.UnixMicro(createdAt)
	return &record, nil
}

// Ensure HistoryRepository implements the interface
var _ secondary.HistoryRepository = (*HistoryRepository)(nil)
