package artifact

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// SaveContext provides context for save guards.
type SaveContext struct {
	Kind       OutputKind
	Content    string // single-artifact saves
	Summarized string // both
	Full       string // both
}

// CanSave evaluates whether a save request carries something to write.
// Rules:
// - Kind must be summary, full or both
// - Single saves need non-blank content
// - Both saves need at least one non-blank part
func CanSave(ctx SaveContext) GuardResult {
	if !ctx.Kind.Valid() {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown output kind %q", ctx.Kind)}
	}

	if ctx.Kind == KindBoth {
		if strings.TrimSpace(ctx.Summarized) == "" && strings.TrimSpace(ctx.Full) == "" {
			return GuardResult{Allowed: false, Reason: "no content to save"}
		}
		return GuardResult{Allowed: true}
	}

	if strings.TrimSpace(ctx.Content) == "" {
		return GuardResult{Allowed: false, Reason: "no content to save"}
	}
	return GuardResult{Allowed: true}
}

// ShouldBackup decides whether the canonical file gets a backup before being
// overwritten. Only files that existed before the request began are backed up,
// and only when the caller confirmed the overwrite.
func ShouldBackup(existedBefore, confirmOverwrite bool) bool {
	return existedBefore && confirmOverwrite
}

// ContentFor returns the text each artifact receives for a save of kind.
// Blank parts of a "both" save are skipped.
func ContentFor(ctx SaveContext) map[Artifact]string {
	out := make(map[Artifact]string, 2)
	switch ctx.Kind {
	case KindSummary:
		out[ArtifactSummary] = ctx.Content
	case KindFull:
		out[ArtifactFull] = ctx.Content
	case KindBoth:
		if strings.TrimSpace(ctx.Summarized) != "" {
			out[ArtifactSummary] = ctx.Summarized
		}
		if strings.TrimSpace(ctx.Full) != "" {
			out[ArtifactFull] = ctx.Full
		}
	}
	return out
}

// HistoryContent returns the summarized and full columns recorded for a save.
func HistoryContent(ctx SaveContext) (summarized, full string) {
	switch ctx.Kind {
	case KindSummary:
		return ctx.Content, ""
	case KindFull:
		return "", ctx.Content
	case KindBoth:
		return ctx.Summarized, ctx.Full
	}
	return "", ""
}
