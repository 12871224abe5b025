package secondary

import (
	"context"
	"errors"

	"github.com/example/llmtxt/internal/core/artifact"
)

// DocumentRoot defines the secondary port for the directory the canonical
// artifacts live in. Paths outside the root are never touched.
type DocumentRoot interface {
	// Root returns the absolute, symlink-resolved document root.
	Root() string

	// Path returns the absolute path of a canonical name inside the root.
	Path(name string) string

	// Snapshot reports, for each name, whether it exists right now.
	Snapshot(ctx context.Context, names []string) (map[string]bool, error)

	// Exists reports whether a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Write overwrites the canonical file atomically and returns its path.
	Write(ctx context.Context, name, content string) (string, error)

	// Resolve returns the real path of path. Missing files yield an error
	// satisfying errors.Is(err, fs.ErrNotExist); paths resolving outside the
	// root yield ErrOutsideRoot.
	Resolve(ctx context.Context, path string) (string, error)

	// Remove unlinks an already resolved path.
	Remove(ctx context.Context, resolved string) error
}

// BackupManager defines the secondary port for pre-overwrite backups.
type BackupManager interface {
	// BackupOnce returns the backup of path for this operation, creating it at
	// most once. ok is false when no backup could be made.
	BackupOnce(ctx context.Context, registry *artifact.BackupRegistry, path string) (backupPath string, ok bool)
}

// RequestLocker defines the secondary port for the cross-process save lock.
type RequestLocker interface {
	// Acquire blocks until the lock is held, the timeout passes or ctx is done.
	// The returned release func must be called on every exit path.
	Acquire(ctx context.Context) (release func(), err error)
}

// ErrOutsideRoot is returned by DocumentRoot.Resolve for paths escaping the root.
var ErrOutsideRoot = errors.New("path outside document root")
