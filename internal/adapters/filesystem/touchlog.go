package filesystem

import (
	"sync"
	"time"
)

// defaultTouchWindow is how long a path counts as recently written by this process.
const defaultTouchWindow = 2 * time.Second

// TouchLog remembers paths this process changed recently so the watcher can
// tell its own writes from out-of-band edits. A nil *TouchLog is a no-op.
type TouchLog struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	paths  map[string]time.Time
}

// NewTouchLog creates a log with the default window.
func NewTouchLog() *TouchLog {
	return &TouchLog{
		window: defaultTouchWindow,
		now:    time.Now,
		paths:  make(map[string]time.Time),
	}
}

// Mark records that path was just changed by this process.
func (l *TouchLog) Mark(path string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.paths[path] = now
	for p, at := range l.paths {
		if now.Sub(at) > l.window {
			delete(l.paths, p)
		}
	}
}

// Recent reports whether path was marked within the window.
func (l *TouchLog) Recent(path string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	at, ok := l.paths[path]
	return ok && l.now().Sub(at) <= l.window
}
