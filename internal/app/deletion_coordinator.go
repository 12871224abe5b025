package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/primary"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// Per-file failure reasons reported to the caller.
const (
	reasonNotFound     = "not found"
	reasonOutsideRoot  = "outside root"
	reasonDeleteFailed = "delete failed"
	reasonCheckFailed  = "check failed"
)

// alreadyDeletedMessage answers a delete for an entry that no longer exists.
const alreadyDeletedMessage = "History item already deleted"

// DeletionCoordinator removes a history entry together with the files only it
// still accounts for. A live canonical file is kept while a newer entry of the
// same owner references it.
type DeletionCoordinator struct {
	repo    secondary.HistoryRepository
	root    secondary.DocumentRoot
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewDeletionCoordinator creates a DeletionCoordinator.
func NewDeletionCoordinator(repo secondary.HistoryRepository, root secondary.DocumentRoot, collector *metrics.Collector, logger *zap.Logger) *DeletionCoordinator {
	return &DeletionCoordinator{
		repo:    repo,
		root:    root,
		metrics: collectorOrDefault(collector),
		logger:  logging.Component(logger, "deletion"),
	}
}

// deletion accumulates per-file outcomes of one Delete call.
type deletion struct {
	deleted []string
	failed  []string
}

func (d *deletion) fail(name, reason string) {
	d.failed = append(d.failed, fmt.Sprintf("%s (%s)", name, reason))
}

// Delete removes the owner's entry entryID. Per-file failures are reported in
// the response; only a failure to read or delete the row itself is an error.
// Deleting an absent entry succeeds with empty lists.
func (c *DeletionCoordinator) Delete(ctx context.Context, entryID int64, ownerID string) (*primary.DeleteResponse, error) {
	record, err := c.repo.GetByID(ctx, entryID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}
	if record == nil {
		c.logger.Info("history entry already deleted", zap.Int64("id", entryID), zap.String("owner", ownerID))
		return &primary.DeleteResponse{Message: alreadyDeletedMessage, FilesDeleted: []string{}, FilesFailed: []string{}}, nil
	}

	kind, err := artifact.ParseOutputKind(record.OutputKind)
	if err != nil {
		c.logger.Warn("unknown output kind, deleting row only", zap.Int64("id", entryID), zap.String("kind", record.OutputKind))
	}

	var d deletion
	resolved := make(map[string]bool)

	for _, step := range history.PlanDeletion(kind, artifact.ParsePathList(record.FilePath)) {
		if step.Live {
			if c.isLiveCanonical(ctx, step) {
				continue
			}
			resolved[step.Target] = true
		}
		c.removeStored(ctx, &d, step)
	}

	for _, target := range kind.TargetNames() {
		if resolved[target] {
			continue
		}
		c.removeLive(ctx, &d, record, target)
	}

	if err := c.repo.Delete(ctx, entryID, ownerID); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}

	c.logger.Info("history entry deleted",
		zap.Int64("id", entryID),
		zap.Strings("deleted", d.deleted),
		zap.Strings("failed", d.failed))

	return &primary.DeleteResponse{
		Message:      history.DeleteMessage(d.deleted, d.failed),
		FilesDeleted: nonNil(d.deleted),
		FilesFailed:  nonNil(d.failed),
	}, nil
}

// isLiveCanonical reports whether a non-backup stored path is this root's
// canonical file for its target. Those are only removed by removeLive.
func (c *DeletionCoordinator) isLiveCanonical(ctx context.Context, step history.DeletionStep) bool {
	want := c.root.Path(step.Target)
	if filepath.Clean(step.Path) == want {
		return true
	}
	real, err := c.root.Resolve(ctx, step.Path)
	return err == nil && real == want
}

// removeStored deletes one stored path after resolving and containing it.
func (c *DeletionCoordinator) removeStored(ctx context.Context, d *deletion, step history.DeletionStep) {
	real, err := c.root.Resolve(ctx, step.Path)
	if err != nil {
		reason := reasonNotFound
		if errors.Is(err, secondary.ErrOutsideRoot) {
			reason = reasonOutsideRoot
		}
		c.logger.Warn("stored path not deleted", zap.String("path", step.Path), zap.String("reason", reason), zap.Error(err))
		c.metrics.DeleteFiles.WithLabelValues("failed").Inc()
		d.fail(step.Name, reason)
		return
	}

	if err := c.root.Remove(ctx, real); err != nil {
		c.logger.Warn("failed to delete stored path", zap.String("path", real), zap.Error(err))
		c.metrics.DeleteFiles.WithLabelValues("failed").Inc()
		d.fail(step.Name, reasonDeleteFailed)
		return
	}

	c.logger.Info("deleted stored path", zap.String("path", real))
	c.metrics.DeleteFiles.WithLabelValues("deleted").Inc()
	d.deleted = append(d.deleted, step.Name)
}

// removeLive deletes the canonical file for target unless a newer entry of the
// owner still references it.
func (c *DeletionCoordinator) removeLive(ctx context.Context, d *deletion, record *secondary.HistoryRecord, target string) {
	path := c.root.Path(target)
	exists, err := c.root.Exists(ctx, path)
	if err != nil || !exists {
		return
	}

	newer, err := c.repo.CountNewerReferencing(ctx, record.OwnerID, record.ID, record.CreatedAt, target)
	if err != nil {
		c.logger.Warn("newer-entry check failed, keeping live file", zap.String("path", path), zap.Error(err))
		c.metrics.DeleteFiles.WithLabelValues("failed").Inc()
		d.fail(target, reasonCheckFailed)
		return
	}
	if newer > 0 {
		c.logger.Info("live file referenced by newer entry, kept", zap.String("path", path), zap.Int("newer", newer))
		c.metrics.DeleteFiles.WithLabelValues("kept").Inc()
		return
	}

	real, err := c.root.Resolve(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		c.logger.Warn("live file not deleted", zap.String("path", path), zap.Error(err))
		c.metrics.DeleteFiles.WithLabelValues("failed").Inc()
		d.fail(target, reasonOutsideRoot)
		return
	}

	if err := c.root.Remove(ctx, real); err != nil {
		c.logger.Warn("failed to delete live file", zap.String("path", real), zap.Error(err))
		c.metrics.DeleteFiles.WithLabelValues("failed").Inc()
		d.fail(target, reasonDeleteFailed)
		return
	}

	c.logger.Info("deleted live file", zap.String("path", real))
	c.metrics.DeleteFiles.WithLabelValues("deleted").Inc()
	d.deleted = append(d.deleted, target)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
