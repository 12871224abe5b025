package history

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNewFingerprint(t *testing.T) {
	a := NewFingerprint("sum", "full")
	b := NewFingerprint("su", "mfull")

	// The fingerprint covers the concatenation only.
	assert.Equal(t, a, b)
	assert.Len(t, a.Hash, 64)
	assert.Equal(t, 7, a.Length)
	assert.Equal(t, "sumfull", a.Prefix)
}

func TestNewFingerprint_PrefixTruncated(t *testing.T) {
	long := strings.Repeat("ab", 300)
	fp := NewFingerprint(long, "")
	assert.Equal(t, long[:PrefixChars], fp.Prefix)
	assert.Equal(t, 600, fp.Length)
}

func TestPrefix_NeverSplitsRunes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "s")
		n := rapid.IntRange(0, 50).Draw(rt, "n")

		p := prefix(s, n)
		if !utf8.ValidString(s) {
			return
		}
		if !utf8.ValidString(p) {
			rt.Fatalf("prefix %q of %q is not valid UTF-8", p, s)
		}
		if !strings.HasPrefix(s, p) {
			rt.Fatalf("%q is not a prefix of %q", p, s)
		}
		if got := utf8.RuneCountInString(p); got > n {
			rt.Fatalf("prefix has %d runes, want at most %d", got, n)
		}
	})
}
