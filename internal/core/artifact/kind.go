// Package artifact contains the pure rules for canonical artifacts: output kinds,
// canonical filenames, backup naming and the stored path list of a history entry.
package artifact

import (
	"fmt"
	"strings"
)

// Canonical filenames. Exactly two live artifacts exist in the document root.
const (
	SummaryFile = "llm.txt"
	FullFile    = "llm-full.txt"
)

// Artifact identifies one of the two canonical artifacts.
type Artifact string

const (
	ArtifactSummary Artifact = "summary"
	ArtifactFull    Artifact = "full"
)

// Filename returns the canonical filename of the artifact.
func (a Artifact) Filename() string {
	switch a {
	case ArtifactSummary:
		return SummaryFile
	case ArtifactFull:
		return FullFile
	}
	return ""
}

// OutputKind selects which canonical artifacts an operation concerns.
type OutputKind string

const (
	KindSummary OutputKind = "summary"
	KindFull    OutputKind = "full"
	KindBoth    OutputKind = "both"
)

// legacyKinds maps the names older clients still send.
var legacyKinds = map[string]OutputKind{
	"llms_txt":      KindSummary,
	"llms_full_txt": KindFull,
	"llms_both":     KindBoth,
}

// ParseOutputKind accepts the canonical names and the legacy aliases.
func ParseOutputKind(s string) (OutputKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch OutputKind(v) {
	case KindSummary, KindFull, KindBoth:
		return OutputKind(v), nil
	}
	if k, ok := legacyKinds[v]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown output kind %q (valid: summary, full, both)", s)
}

// LegacyName returns the name the generation pipeline expects on the wire.
func (k OutputKind) LegacyName() string {
	for name, kind := range legacyKinds {
		if kind == k {
			return name
		}
	}
	return ""
}

// Valid reports whether k is one of the three known kinds.
func (k OutputKind) Valid() bool {
	return k == KindSummary || k == KindFull || k == KindBoth
}

// Artifacts returns the canonical artifacts the kind covers, summary first.
func (k OutputKind) Artifacts() []Artifact {
	switch k {
	case KindSummary:
		return []Artifact{ArtifactSummary}
	case KindFull:
		return []Artifact{ArtifactFull}
	case KindBoth:
		return []Artifact{ArtifactSummary, ArtifactFull}
	}
	return nil
}

// TargetNames returns the canonical filenames the kind covers.
func (k OutputKind) TargetNames() []string {
	arts := k.Artifacts()
	names := make([]string, len(arts))
	for i, a := range arts {
		names[i] = a.Filename()
	}
	return names
}

// AllNames lists both canonical filenames.
func AllNames() []string {
	return []string{SummaryFile, FullFile}
}

// ArtifactForName maps a filename (live or backup) to its artifact.
// A backup name maps to the artifact it was taken from.
func ArtifactForName(name string) (Artifact, bool) {
	base := name
	if i := strings.Index(base, BackupMarker); i >= 0 {
		base = base[:i]
	}
	switch base {
	case SummaryFile:
		return ArtifactSummary, true
	case FullFile:
		return ArtifactFull, true
	}
	return "", false
}
