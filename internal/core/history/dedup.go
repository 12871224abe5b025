package history

import "time"

// Tier names one duplicate-detection rule. Tiers are evaluated in order and the
// first match short-circuits.
type Tier string

const (
	TierHash         Tier = "hash"
	TierPrefix       Tier = "prefix"
	TierRecentLength Tier = "recent-length"
	TierRapid        Tier = "rapid"
	TierFinalHash    Tier = "final-hash"
)

// Dedup windows.
const (
	RecentLengthWindow = 10 * time.Second
	RapidWindow        = 5 * time.Second
	FinalHashWindow    = 3 * time.Second
)

// UnknownSourceURL is recorded when a save carries no source URL.
const UnknownSourceURL = "Unknown"

// Scope identifies the rows a save may be a duplicate of.
type Scope struct {
	OwnerID   string
	SourceURL string
	Kind      string
}

// Criteria describes one tier as a query against prior rows in the same scope.
// Zero-valued fields do not constrain the query.
type Criteria struct {
	Scope  Scope
	Hash   string
	Length int
	Prefix string
	// MatchLength is needed because a zero length is a valid value to match.
	MatchLength bool
	Since       time.Time
}

// PreInsertTiers are checked, in order, before the insert is prepared.
func PreInsertTiers() []Tier {
	return []Tier{TierHash, TierPrefix, TierRecentLength, TierRapid}
}

// CriteriaFor builds the query for tier t at time now.
func CriteriaFor(t Tier, scope Scope, fp Fingerprint, now time.Time) Criteria {
	c := Criteria{Scope: scope}
	switch t {
	case TierHash:
		c.Hash = fp.Hash
	case TierPrefix:
		c.Length = fp.Length
		c.MatchLength = true
		c.Prefix = fp.Prefix
	case TierRecentLength:
		c.Length = fp.Length
		c.MatchLength = true
		c.Since = now.Add(-RecentLengthWindow)
	case TierRapid:
		c.Since = now.Add(-RapidWindow)
	case TierFinalHash:
		c.Hash = fp.Hash
		c.Since = now.Add(-FinalHashWindow)
	}
	return c
}

// NormalizeSourceURL substitutes the placeholder for an empty URL.
func NormalizeSourceURL(url string) string {
	if url == "" {
		return UnknownSourceURL
	}
	return url
}
