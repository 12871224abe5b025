package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
)

// Watcher reports out-of-band changes to artifacts in the document root.
// It is informational: nothing reads state from it.
type Watcher struct {
	root    string
	touched *TouchLog
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewWatcher creates a watcher for root. Paths recently marked in touched are
// treated as this process's own writes and ignored.
func NewWatcher(root string, touched *TouchLog, collector *metrics.Collector, logger *zap.Logger) *Watcher {
	if collector == nil {
		collector = metrics.NewCollector(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:    root,
		touched: touched,
		metrics: collector,
		logger:  logging.Component(logger, "watcher"),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// handle logs and counts one event if it concerns an artifact.
func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, tempFilePrefix) || name == LockFileName {
		return
	}
	if _, ok := artifact.ArtifactForName(name); !ok {
		return
	}
	if w.touched.Recent(event.Name) {
		return
	}

	op := eventOp(event)
	if op == "" {
		return
	}
	w.metrics.DocRootEvents.WithLabelValues(op).Inc()
	w.logger.Info("artifact changed outside llmtxt", zap.String("path", event.Name), zap.String("op", op))
}

func eventOp(event fsnotify.Event) string {
	switch {
	case event.Has(fsnotify.Create):
		return "create"
	case event.Has(fsnotify.Write):
		return "write"
	case event.Has(fsnotify.Remove):
		return "remove"
	case event.Has(fsnotify.Rename):
		return "rename"
	}
	return ""
}
