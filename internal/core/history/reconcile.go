package history

import "time"

// ReconcileMinAge excludes entries younger than this from reconciliation, so the
// in-flight save's own row is never repointed at its own backup.
const ReconcileMinAge = 3 * time.Second

// ReconcileCutoff returns the latest creation time an entry may have to be reconciled.
func ReconcileCutoff(now time.Time) time.Time {
	return now.Add(-ReconcileMinAge)
}
