package artifact

// BackupRegistry maps a canonical path to the backup made for it during one save
// operation. It is created per operation and never shared across operations.
type BackupRegistry struct {
	entries map[string]string
}

// NewBackupRegistry returns an empty registry.
func NewBackupRegistry() *BackupRegistry {
	return &BackupRegistry{entries: make(map[string]string)}
}

// Lookup returns the registered backup for the canonical path.
func (r *BackupRegistry) Lookup(canonical string) (string, bool) {
	b, ok := r.entries[canonical]
	return b, ok
}

// Register records backup as the backup of canonical.
func (r *BackupRegistry) Register(canonical, backup string) {
	r.entries[canonical] = backup
}

// Len returns the number of registered backups.
func (r *BackupRegistry) Len() int {
	return len(r.entries)
}
