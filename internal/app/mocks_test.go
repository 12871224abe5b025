package app

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockHistoryRepository implements secondary.HistoryRepository in memory.
type mockHistoryRepository struct {
	mu        sync.Mutex
	records   []*secondary.HistoryRecord
	nextID    int64
	createErr error
	findErr   error
	getErr    error
	listErr   error
	updateErr error
	countErr  error
	deleteErr error
	criteria  []history.Criteria
}

func newMockHistoryRepository() *mockHistoryRepository {
	return &mockHistoryRepository{nextID: 1}
}

func (m *mockHistoryRepository) Create(ctx context.Context, record *secondary.HistoryRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	cp := *record
	cp.ID = m.nextID
	m.nextID++
	m.records = append(m.records, &cp)
	record.ID = cp.ID
	return cp.ID, nil
}

func (m *mockHistoryRepository) FindDuplicate(ctx context.Context, c history.Criteria) (*secondary.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.criteria = append(m.criteria, c)
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.latest(func(r *secondary.HistoryRecord) bool {
		if r.OwnerID != c.Scope.OwnerID || r.SourceURL != c.Scope.SourceURL || r.OutputKind != c.Scope.Kind {
			return false
		}
		if c.Hash != "" && r.ContentHash != c.Hash {
			return false
		}
		if c.MatchLength && r.ContentLength != c.Length {
			return false
		}
		if c.Prefix != "" && r.ContentPrefix != c.Prefix {
			return false
		}
		if !c.Since.IsZero() && r.CreatedAt.Before(c.Since) {
			return false
		}
		return true
	}), nil
}

func (m *mockHistoryRepository) GetByID(ctx context.Context, id int64, ownerID string) (*secondary.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, r := range m.records {
		if r.ID == id && r.OwnerID == ownerID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockHistoryRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*secondary.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.HistoryRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockHistoryRepository) FindReconcileCandidate(ctx context.Context, q secondary.ReconcileQuery) (*secondary.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.latest(func(r *secondary.HistoryRecord) bool {
		return r.OwnerID == q.OwnerID &&
			(strings.Contains(r.FilePath, q.OriginalName) || strings.Contains(r.FilePath, q.OriginalPath)) &&
			!strings.Contains(r.FilePath, q.BackupName) &&
			r.CreatedAt.Before(q.Before)
	}), nil
}

func (m *mockHistoryRepository) UpdateFilePath(ctx context.Context, id int64, ownerID, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, r := range m.records {
		if r.ID == id && r.OwnerID == ownerID {
			r.FilePath = filePath
			return nil
		}
	}
	return errors.New("history entry not found")
}

func (m *mockHistoryRepository) CountNewerReferencing(ctx context.Context, ownerID string, excludeID int64, after time.Time, filename string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	count := 0
	for _, r := range m.records {
		if r.OwnerID == ownerID && r.ID != excludeID && r.CreatedAt.After(after) && strings.Contains(r.FilePath, filename) {
			count++
		}
	}
	return count, nil
}

func (m *mockHistoryRepository) Delete(ctx context.Context, id int64, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, r := range m.records {
		if r.ID == id && r.OwnerID == ownerID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockHistoryRepository) seed(r secondary.HistoryRecord) int64 {
	fp := history.NewFingerprint(r.SummarizedContent, r.FullContent)
	r.ContentHash, r.ContentLength, r.ContentPrefix = fp.Hash, fp.Length, fp.Prefix
	id, _ := m.Create(context.Background(), &r)
	return id
}

func (m *mockHistoryRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockHistoryRepository) latest(match func(*secondary.HistoryRecord) bool) *secondary.HistoryRecord {
	var best *secondary.HistoryRecord
	for _, r := range m.records {
		if match(r) && (best == nil || newer(r, best)) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func newer(a, b *secondary.HistoryRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// mockLocker implements secondary.RequestLocker.
type mockLocker struct {
	acquireErr error
	acquired   int
	released   int
}

func (m *mockLocker) Acquire(ctx context.Context) (func(), error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired++
	return func() { m.released++ }, nil
}

// mockDocumentRoot implements secondary.DocumentRoot over an in-memory file map.
type mockDocumentRoot struct {
	root      string
	files     map[string]string
	writeErr  map[string]error
	removeErr error
	outside   map[string]bool
}

func newMockDocumentRoot() *mockDocumentRoot {
	return &mockDocumentRoot{
		root:     "/srv/www",
		files:    make(map[string]string),
		writeErr: make(map[string]error),
		outside:  make(map[string]bool),
	}
}

func (m *mockDocumentRoot) Root() string            { return m.root }
func (m *mockDocumentRoot) Path(name string) string { return filepath.Join(m.root, name) }

func (m *mockDocumentRoot) Snapshot(ctx context.Context, names []string) (map[string]bool, error) {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		_, out[n] = m.files[m.Path(n)]
	}
	return out, nil
}

func (m *mockDocumentRoot) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *mockDocumentRoot) Write(ctx context.Context, name, content string) (string, error) {
	if err := m.writeErr[name]; err != nil {
		return "", err
	}
	m.files[m.Path(name)] = content
	return m.Path(name), nil
}

func (m *mockDocumentRoot) Resolve(ctx context.Context, path string) (string, error) {
	if m.outside[path] {
		return "", secondary.ErrOutsideRoot
	}
	if _, ok := m.files[path]; !ok {
		return "", fs.ErrNotExist
	}
	return path, nil
}

func (m *mockDocumentRoot) Remove(ctx context.Context, resolved string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.files, resolved)
	return nil
}

// mockBackupManager implements secondary.BackupManager against a mockDocumentRoot.
type mockBackupManager struct {
	root  *mockDocumentRoot
	fail  bool
	calls int
}

func (m *mockBackupManager) BackupOnce(ctx context.Context, registry *artifact.BackupRegistry, path string) (string, bool) {
	m.calls++
	if m.fail {
		return "", false
	}
	if b, ok := registry.Lookup(path); ok {
		return b, true
	}
	backup := path + artifact.BackupMarker + "2025-01-01-00-00-00-000000"
	m.root.files[backup] = m.root.files[path]
	registry.Register(path, backup)
	return backup, true
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
