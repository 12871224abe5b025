package history

import (
	"path/filepath"
	"strings"

	"github.com/example/llmtxt/internal/core/artifact"
)

// truncatedSuffix marks stored paths that were cut short for display.
const truncatedSuffix = "..."

// DeletionStep is the action planned for one stored path of an entry.
type DeletionStep struct {
	Path   string
	Name   string
	Target string // canonical filename the path matched
	// Live is set for non-backup paths. Live files are never removed directly;
	// they go through the newer-entry check.
	Live bool
}

// PlanDeletion matches an entry's stored paths against the kind's targets.
// Matching is by substring of the filename, so backup variants match their
// canonical name. Paths that match no target, are empty or truncated are skipped.
func PlanDeletion(kind artifact.OutputKind, paths artifact.PathList) []DeletionStep {
	targets := kind.TargetNames()
	var steps []DeletionStep
	for _, p := range paths {
		raw := strings.TrimSpace(p.Path)
		if raw == "" || strings.HasSuffix(raw, truncatedSuffix) {
			continue
		}
		name := filepath.Base(raw)
		target, ok := MatchTarget(name, targets)
		if !ok {
			continue
		}
		steps = append(steps, DeletionStep{
			Path:   raw,
			Name:   name,
			Target: target,
			Live:   !artifact.IsBackupPath(raw),
		})
	}
	return steps
}

// MatchTarget returns the first target contained in name.
// The match is loose: any name containing a target matches, e.g.
// "old-llm.txt" matches "llm.txt". Stored paths normally come from this
// package, so only hand-edited rows are exposed to it.
func MatchTarget(name string, targets []string) (string, bool) {
	for _, t := range targets {
		if strings.Contains(name, t) {
			return t, true
		}
	}
	return "", false
}

// DeleteMessage builds the human-readable summary of a deletion.
func DeleteMessage(deleted, failed []string) string {
	msg := "History item deleted"
	if len(deleted) > 0 {
		msg += ". Files deleted: " + strings.Join(deleted, ", ")
	}
	if len(failed) > 0 {
		msg += ". Files failed to delete: " + strings.Join(failed, ", ")
	}
	return msg
}
