package artifact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// PathSeparator joins stored paths in the persisted file_path column.
const PathSeparator = ", "

var splitPaths = regexp.MustCompile(`,\s*`)

// StoredPath is one element of a history entry's file path list.
type StoredPath struct {
	Artifact Artifact // empty when the name is not a canonical artifact
	Path     string
	Backup   bool
}

// Name returns the base filename of the stored path.
func (p StoredPath) Name() string {
	return filepath.Base(p.Path)
}

// NewStoredPath classifies path by its filename.
func NewStoredPath(path string) StoredPath {
	a, _ := ArtifactForName(filepath.Base(path))
	return StoredPath{Artifact: a, Path: path, Backup: IsBackupPath(path)}
}

// PathList is the ordered list of on-disk locations a history entry represents.
type PathList []StoredPath

// ParsePathList splits the persisted form. Empty elements are dropped.
func ParsePathList(s string) PathList {
	var list PathList
	for _, part := range splitPaths.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		list = append(list, NewStoredPath(part))
	}
	return list
}

// NewPathList builds a list from raw paths.
func NewPathList(paths ...string) PathList {
	list := make(PathList, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		list = append(list, NewStoredPath(p))
	}
	return list
}

// String returns the persisted form.
func (l PathList) String() string {
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = p.Path
	}
	return strings.Join(parts, PathSeparator)
}

// Paths returns the raw paths in order.
func (l PathList) Paths() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.Path
	}
	return out
}

// ReplaceOriginal swaps every non-backup element matching original (by full path
// or by filename) for backup. Other elements are kept in place. The boolean
// reports whether anything changed.
func (l PathList) ReplaceOriginal(original, backup string) (PathList, bool) {
	name := filepath.Base(original)
	out := make(PathList, len(l))
	updated := false
	for i, p := range l {
		if !p.Backup && (p.Path == original || p.Name() == name) {
			out[i] = NewStoredPath(backup)
			updated = true
			continue
		}
		out[i] = p
	}
	return out, updated
}
