// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// tempFilePrefix names the scratch files of atomic writes.
const tempFilePrefix = ".llmtxt-tmp-"

// artifactPerm is the mode of written artifacts.
const artifactPerm os.FileMode = 0644

// DocumentRoot implements secondary.DocumentRoot over a local directory.
type DocumentRoot struct {
	root    string
	touched *TouchLog
	logger  *zap.Logger
}

// NewDocumentRoot resolves root to an absolute real path. The directory is
// created when missing. touched may be nil.
func NewDocumentRoot(root string, touched *TouchLog, logger *zap.Logger) (*DocumentRoot, error) {
	if root == "" {
		return nil, fmt.Errorf("document root is empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document root: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document root: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRoot{
		root:    real,
		touched: touched,
		logger:  logging.Component(logger, "docroot"),
	}, nil
}

// Root returns the resolved document root.
func (d *DocumentRoot) Root() string {
	return d.root
}

// Path returns the absolute path of name inside the root.
func (d *DocumentRoot) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Snapshot reports which of the names exist right now.
func (d *DocumentRoot) Snapshot(ctx context.Context, names []string) (map[string]bool, error) {
	out := make(map[string]bool, len(names))
	for _, name := range names {
		exists, err := d.Exists(ctx, d.Path(name))
		if err != nil {
			return nil, err
		}
		out[name] = exists
	}
	return out, nil
}

// Exists reports whether path exists.
func (d *DocumentRoot) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", path, err)
	}
	return true, nil
}

// Write replaces the file name in the root with content. The write goes to a
// temp file in the same directory which is then renamed over the target, so
// readers never observe a partial artifact.
func (d *DocumentRoot) Write(ctx context.Context, name, content string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := d.Path(name)
	d.touched.Mark(path)
	if err := writeFileAtomic(path, []byte(content), artifactPerm); err != nil {
		return "", err
	}

	d.logger.Debug("artifact written", zap.String("path", path), zap.Int("bytes", len(content)))
	return path, nil
}

// Resolve returns the real path of path, rejecting anything outside the root.
func (d *DocumentRoot) Resolve(ctx context.Context, path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if !d.contains(real) {
		return "", fmt.Errorf("%s: %w", path, secondary.ErrOutsideRoot)
	}
	return real, nil
}

// Remove unlinks a resolved path. It re-checks containment so callers cannot
// skip Resolve.
func (d *DocumentRoot) Remove(ctx context.Context, resolved string) error {
	if !d.contains(resolved) {
		return fmt.Errorf("%s: %w", resolved, secondary.ErrOutsideRoot)
	}
	d.touched.Mark(resolved)
	if err := os.Remove(resolved); err != nil {
		return fmt.Errorf("failed to remove %s: %w", resolved, err)
	}
	return nil
}

// contains reports whether path lies strictly inside the root.
func (d *DocumentRoot) contains(path string) bool {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// writeFileAtomic writes data to a temp file in the target's directory, syncs
// it and renames it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}

// Ensure DocumentRoot implements the interface
var _ secondary.DocumentRoot = (*DocumentRoot)(nil)
