// Package history contains the pure rules behind the generation history:
// content fingerprints, the ordered duplicate-detection tiers, reconciliation
// cutoffs and deletion planning.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// PrefixChars is the number of leading characters compared by the prefix tier.
const PrefixChars = 200

// Fingerprint summarises the combined summarized+full content of an entry.
type Fingerprint struct {
	Hash   string
	Length int // bytes
	Prefix string
}

// NewFingerprint fingerprints the concatenation of summarized and full.
func NewFingerprint(summarized, full string) Fingerprint {
	combined := summarized + full
	sum := sha256.Sum256([]byte(combined))
	return Fingerprint{
		Hash:   hex.EncodeToString(sum[:]),
		Length: len(combined),
		Prefix: prefix(combined, PrefixChars),
	}
}

// prefix returns the first n characters of s without splitting a rune.
func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
