package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// DefaultRecencyWindow is how old an existing backup may be and still be reused.
const DefaultRecencyWindow = 5 * time.Second

// Backup outcomes for metrics.
const (
	backupCreated = "created"
	backupReused  = "reused"
	backupFailed  = "failed"
)

// BackupManager implements secondary.BackupManager. It copies a canonical file
// to a timestamped sibling before it is overwritten, at most once per operation.
type BackupManager struct {
	recencyWindow time.Duration
	now           func() time.Time
	touched       *TouchLog
	metrics       *metrics.Collector
	logger        *zap.Logger
}

// BackupOption configures a BackupManager.
type BackupOption func(*BackupManager)

// WithRecencyWindow overrides DefaultRecencyWindow.
func WithRecencyWindow(d time.Duration) BackupOption {
	return func(m *BackupManager) {
		if d > 0 {
			m.recencyWindow = d
		}
	}
}

// WithBackupClock replaces time.Now, mainly for tests.
func WithBackupClock(now func() time.Time) BackupOption {
	return func(m *BackupManager) { m.now = now }
}

// WithBackupTouchLog records created backups in touched.
func WithBackupTouchLog(touched *TouchLog) BackupOption {
	return func(m *BackupManager) { m.touched = touched }
}

// NewBackupManager creates a backup manager.
func NewBackupManager(collector *metrics.Collector, logger *zap.Logger, opts ...BackupOption) *BackupManager {
	if collector == nil {
		collector = metrics.NewCollector(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &BackupManager{
		recencyWindow: DefaultRecencyWindow,
		now:           time.Now,
		metrics:       collector,
		logger:        logging.Component(logger, "backup"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BackupOnce returns the backup of path for the operation owning registry.
// Lookup order: the registry, then a backup of the same file created within
// the recency window, then a fresh copy. Failures are logged and reported
// with ok=false; they never abort the caller.
func (m *BackupManager) BackupOnce(ctx context.Context, registry *artifact.BackupRegistry, path string) (string, bool) {
	canonical := path
	if real, err := filepath.EvalSymlinks(path); err == nil {
		canonical = real
	}

	if backup, ok := registry.Lookup(canonical); ok {
		return backup, true
	}

	if recent, ok := m.findRecent(canonical); ok {
		registry.Register(canonical, recent)
		m.metrics.BackupsTotal.WithLabelValues(backupReused).Inc()
		m.logger.Info("reusing recent backup", zap.String("path", canonical), zap.String("backup", recent))
		return recent, true
	}

	backup, err := m.create(ctx, canonical)
	if err != nil {
		m.metrics.BackupsTotal.WithLabelValues(backupFailed).Inc()
		m.logger.Warn("backup failed", zap.String("path", canonical), zap.Error(err))
		return "", false
	}

	registry.Register(canonical, backup)
	m.metrics.BackupsTotal.WithLabelValues(backupCreated).Inc()
	m.logger.Info("backup created", zap.String("path", canonical), zap.String("backup", backup))
	return backup, true
}

// findRecent returns the newest backup of canonical modified within the recency window.
func (m *BackupManager) findRecent(canonical string) (string, bool) {
	dir := filepath.Dir(canonical)
	matches, err := doublestar.Glob(os.DirFS(dir), artifact.BackupGlob(canonical))
	if err != nil {
		m.logger.Debug("backup glob failed", zap.String("path", canonical), zap.Error(err))
		return "", false
	}

	now := m.now()
	var (
		best     string
		bestTime time.Time
	)
	for _, match := range matches {
		candidate := filepath.Join(dir, match)
		if !artifact.IsBackupOf(candidate, canonical) {
			continue
		}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		age := now.Sub(info.ModTime())
		if age > m.recencyWindow {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = candidate, info.ModTime()
		}
	}
	return best, best != ""
}

// create copies canonical to a fresh backup name. Names are claimed with
// O_EXCL so an existing file is never overwritten.
func (m *BackupManager) create(ctx context.Context, canonical string) (string, error) {
	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to stat original: %w", err)
	}
	data, err := os.ReadFile(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to read original: %w", err)
	}

	stamp := m.now()
	for attempt := 0; attempt < artifact.MaxBackupAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		name := artifact.BackupName(canonical, stamp, attempt)
		m.touched.Mark(name)
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create backup file: %w", err)
		}

		if err := writeAndClose(f, data); err != nil {
			os.Remove(name)
			return "", err
		}
		return name, nil
	}

	return "", fmt.Errorf("no free backup name for %s after %d attempts", canonical, artifact.MaxBackupAttempts)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}
	return nil
}

// Ensure BackupManager implements the interface
var _ secondary.BackupManager = (*BackupManager)(nil)
