package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// LockFileName is the marker file guarding saves in a document root.
const LockFileName = ".llmtxt_save_lock"

// Lock defaults.
const (
	DefaultLockTimeout  = 10 * time.Second
	DefaultStaleAfter   = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// errLocked is returned by lockMarker when another holder has the lock.
var errLocked = errors.New("lock is held")

// LockOptions tunes a RequestLock. Zero values select the defaults.
type LockOptions struct {
	Timeout      time.Duration
	StaleAfter   time.Duration
	PollInterval time.Duration
}

func (o LockOptions) withDefaults() LockOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultLockTimeout
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// RequestLock implements secondary.RequestLocker with an advisory lock on a
// marker file in the document root. The OS drops the lock when a holder dies;
// a holder that hangs leaves a marker that becomes reclaimable after StaleAfter.
type RequestLock struct {
	path    string
	opts    LockOptions
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewRequestLock creates a lock whose marker lives in dir.
func NewRequestLock(dir string, opts LockOptions, collector *metrics.Collector, logger *zap.Logger) *RequestLock {
	if collector == nil {
		collector = metrics.NewCollector(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestLock{
		path:    filepath.Join(dir, LockFileName),
		opts:    opts.withDefaults(),
		metrics: collector,
		logger:  logging.Component(logger, "lock"),
	}
}

// Path returns the marker path.
func (l *RequestLock) Path() string {
	return l.path
}

// Acquire waits for the lock. It fails with apperr.ErrLockTimeout once the
// timeout passes and with the context error if ctx is done first.
func (l *RequestLock) Acquire(ctx context.Context) (func(), error) {
	start := time.Now()
	deadline := start.Add(l.opts.Timeout)

	for {
		f, err := l.tryAcquire()
		if err == nil {
			l.metrics.LockWait.Observe(time.Since(start).Seconds())
			return l.releaseFunc(f), nil
		}
		if !errors.Is(err, errLocked) {
			return nil, fmt.Errorf("failed to acquire save lock: %w", err)
		}

		if l.reclaimStale() {
			continue
		}

		if !time.Now().Before(deadline) {
			l.metrics.LockTimeouts.Inc()
			l.logger.Warn("save lock timed out", zap.Duration("waited", time.Since(start)))
			return nil, fmt.Errorf("waited %s for %s: %w", l.opts.Timeout, l.path, apperr.ErrLockTimeout)
		}

		timer := time.NewTimer(l.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("failed to acquire save lock: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// tryAcquire makes one non-blocking attempt. On success the marker holds the
// caller's PID.
func (l *RequestLock) tryAcquire() (*os.File, error) {
	f, err := lockMarker(l.path)
	if err != nil {
		return nil, err
	}

	// The marker may have been removed and recreated between open and lock;
	// a lock on an unlinked inode excludes nobody.
	if !sameFile(f, l.path) {
		unlockMarker(f)
		return nil, errLocked
	}

	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return f, nil
}

// reclaimStale removes a marker older than StaleAfter and reports whether it did.
func (l *RequestLock) reclaimStale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return os.IsNotExist(err)
	}
	age := time.Since(info.ModTime())
	if age <= l.opts.StaleAfter {
		return false
	}
	holder := readHolder(l.path)
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return false
	}
	l.logger.Warn("reclaimed stale save lock", zap.Duration("age", age), zap.String("holder", holder))
	return true
}

// releaseFunc unlocks and removes the marker. The marker is only removed while
// it is still ours, so a reclaimed holder cannot delete its successor's marker.
func (l *RequestLock) releaseFunc(f *os.File) func() {
	return func() {
		if sameFile(f, l.path) {
			os.Remove(l.path)
		}
		unlockMarker(f)
	}
}

func sameFile(f *os.File, path string) bool {
	held, err := f.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

// readHolder returns the PID recorded in the marker, if readable.
func readHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Ensure RequestLock implements the interface
var _ secondary.RequestLocker = (*RequestLock)(nil)
