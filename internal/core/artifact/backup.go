package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// BackupMarker separates a canonical path from its backup label.
const BackupMarker = ".backup."

// MaxBackupAttempts bounds the collision counter appended to a backup label.
const MaxBackupAttempts = 100

// backupLockSuffix is never treated as a backup.
const backupLockSuffix = ".backup.lock"

// BackupLabel formats t as YYYY-MM-DD-HH-MM-SS-uuuuuu.
func BackupLabel(t time.Time) string {
	return fmt.Sprintf("%s-%06d", t.Format("2006-01-02-15-04-05"), t.Nanosecond()/1000)
}

// BackupName returns the candidate backup path for attempt n.
// Attempt 0 has no counter suffix; attempt n>0 appends "-n".
func BackupName(path string, t time.Time, attempt int) string {
	name := path + BackupMarker + BackupLabel(t)
	if attempt > 0 {
		name = fmt.Sprintf("%s-%d", name, attempt)
	}
	return name
}

// IsBackupPath reports whether path names a backup file.
func IsBackupPath(path string) bool {
	return strings.Contains(path, BackupMarker) && !strings.HasSuffix(path, backupLockSuffix)
}

// IsBackupOf reports whether candidate is a backup of the canonical path original.
func IsBackupOf(candidate, original string) bool {
	if !strings.HasPrefix(candidate, original+BackupMarker) {
		return false
	}
	return !strings.HasSuffix(candidate, backupLockSuffix)
}

// BackupGlob returns the glob pattern, relative to the directory of path,
// that matches every backup of path.
func BackupGlob(path string) string {
	return escapeGlob(filepath.Base(path)) + BackupMarker + "*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `{`, `\{`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
