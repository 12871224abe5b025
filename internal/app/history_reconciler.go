package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// HistoryReconciler repoints the most recent prior entry at the backup made of
// the file it recorded, so the entry keeps pointing at the content it describes.
type HistoryReconciler struct {
	repo    secondary.HistoryRepository
	now     func() time.Time
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewHistoryReconciler creates a HistoryReconciler.
func NewHistoryReconciler(repo secondary.HistoryRepository, now func() time.Time, collector *metrics.Collector, logger *zap.Logger) *HistoryReconciler {
	return &HistoryReconciler{
		repo:    repo,
		now:     clockOrDefault(now),
		metrics: collectorOrDefault(collector),
		logger:  logging.Component(logger, "reconciler"),
	}
}

// Reconcile replaces originalPath with backupPath in the candidate entry's
// path list. Entries younger than history.ReconcileMinAge are never touched.
// It returns the candidate's ID and whether its path list changed.
func (r *HistoryReconciler) Reconcile(ctx context.Context, ownerID, originalPath, backupPath string) (int64, bool, error) {
	candidate, err := r.repo.FindReconcileCandidate(ctx, secondary.ReconcileQuery{
		OwnerID:      ownerID,
		OriginalPath: originalPath,
		OriginalName: filepath.Base(originalPath),
		BackupName:   filepath.Base(backupPath),
		Before:       history.ReconcileCutoff(r.now()),
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}
	if candidate == nil {
		r.logger.Debug("no history entry to reconcile", zap.String("original", originalPath))
		return 0, false, nil
	}

	updated, changed := artifact.ParsePathList(candidate.FilePath).ReplaceOriginal(originalPath, backupPath)
	if !changed {
		return candidate.ID, false, nil
	}

	if err := r.repo.UpdateFilePath(ctx, candidate.ID, ownerID, updated.String()); err != nil {
		return candidate.ID, false, fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}

	r.metrics.ReconciledEntries.Inc()
	r.logger.Info("history entry repointed at backup",
		zap.Int64("id", candidate.ID),
		zap.String("original", originalPath),
		zap.String("backup", backupPath))
	return candidate.ID, true, nil
}
