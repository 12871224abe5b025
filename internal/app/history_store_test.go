package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/ports/secondary"
)

func newTestHistoryStore() (*HistoryStore, *mockHistoryRepository, *fakeClock) {
	repo := newMockHistoryRepository()
	clock := newFakeClock()
	return NewHistoryStore(repo, clock.Now, nil, nil), repo, clock
}

func summaryRecord(owner, url, content string) RecordRequest {
	return RecordRequest{
		OwnerID:    owner,
		SourceURL:  url,
		Kind:       artifact.KindSummary,
		Summarized: content,
		FilePath:   artifact.NewPathList("/srv/www/llm.txt"),
	}
}

func TestHistoryStore_Record_Inserts(t *testing.T) {
	store, repo, clock := newTestHistoryStore()

	id, tier, err := store.Record(context.Background(), summaryRecord("7", "https://example.com", "A"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Empty(t, tier)
	require.Equal(t, 1, repo.count())

	r := repo.records[0]
	fp := history.NewFingerprint("A", "")
	assert.Equal(t, "7", r.OwnerID)
	assert.Equal(t, "summary", r.OutputKind)
	assert.Equal(t, fp.Hash, r.ContentHash)
	assert.Equal(t, fp.Length, r.ContentLength)
	assert.Equal(t, "/srv/www/llm.txt", r.FilePath)
	assert.Equal(t, clock.Now(), r.CreatedAt)
}

func TestHistoryStore_Record_EmptyURLBecomesUnknown(t *testing.T) {
	store, repo, _ := newTestHistoryStore()

	_, _, err := store.Record(context.Background(), summaryRecord("7", "", "A"))
	require.NoError(t, err)
	assert.Equal(t, history.UnknownSourceURL, repo.records[0].SourceURL)
}

func TestHistoryStore_Record_IdenticalSavesYieldOneRow(t *testing.T) {
	store, repo, clock := newTestHistoryStore()
	ctx := context.Background()

	first, _, err := store.Record(ctx, summaryRecord("7", "https://example.com", "A"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		clock.Advance(200 * time.Millisecond)
		id, tier, err := store.Record(ctx, summaryRecord("7", "https://example.com", "A"))
		require.NoError(t, err)
		assert.Equal(t, first, id)
		assert.Equal(t, history.TierHash, tier)
	}
	assert.Equal(t, 1, repo.count())
}

func TestHistoryStore_Record_HashMatchesOutsideWindows(t *testing.T) {
	store, repo, clock := newTestHistoryStore()
	ctx := context.Background()

	first, _, err := store.Record(ctx, summaryRecord("7", "https://example.com", "A"))
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	id, tier, err := store.Record(ctx, summaryRecord("7", "https://example.com", "A"))
	require.NoError(t, err)
	assert.Equal(t, first, id)
	assert.Equal(t, history.TierHash, tier)
	assert.Equal(t, 1, repo.count())
}

func TestHistoryStore_Record_Tiers(t *testing.T) {
	long := func(fill byte) string {
		b := make([]byte, 300)
		for i := range b {
			b[i] = 'x'
		}
		b[len(b)-1] = fill
		return string(b)
	}

	tests := []struct {
		name     string
		prior    string
		next     string
		advance  time.Duration
		wantTier history.Tier
		wantRows int
	}{
		{"prefix and length match", long('a'), long('b'), time.Hour, history.TierPrefix, 1},
		{"same length in window", "abc", "xyz", 8 * time.Second, history.TierRecentLength, 1},
		{"anything in rapid window", "abc", "different", 4 * time.Second, history.TierRapid, 1},
		{"different content outside windows", "abc", "different", 11 * time.Second, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo, clock := newTestHistoryStore()
			ctx := context.Background()

			_, _, err := store.Record(ctx, summaryRecord("7", "u", tt.prior))
			require.NoError(t, err)
			clock.Advance(tt.advance)

			_, tier, err := store.Record(ctx, summaryRecord("7", "u", tt.next))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.wantRows, repo.count())
		})
	}
}

func TestHistoryStore_Record_ScopeIsolation(t *testing.T) {
	store, repo, _ := newTestHistoryStore()
	ctx := context.Background()

	_, _, err := store.Record(ctx, summaryRecord("7", "u", "A"))
	require.NoError(t, err)

	other := summaryRecord("8", "u", "A")
	_, tier, err := store.Record(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, tier, "another owner's row is never a duplicate")

	full := summaryRecord("7", "u", "A")
	full.Kind = artifact.KindFull
	_, tier, err = store.Record(ctx, full)
	require.NoError(t, err)
	assert.Empty(t, tier, "another kind's row is never a duplicate")

	assert.Equal(t, 3, repo.count())
}

func TestHistoryStore_Record_TierOrder(t *testing.T) {
	store, repo, _ := newTestHistoryStore()

	_, _, err := store.Record(context.Background(), summaryRecord("7", "u", "A"))
	require.NoError(t, err)

	var seen []history.Tier
	for _, c := range repo.criteria {
		switch {
		case c.Hash != "" && c.Since.IsZero():
			seen = append(seen, history.TierHash)
		case c.Prefix != "":
			seen = append(seen, history.TierPrefix)
		case c.MatchLength:
			seen = append(seen, history.TierRecentLength)
		case c.Hash == "":
			seen = append(seen, history.TierRapid)
		default:
			seen = append(seen, history.TierFinalHash)
		}
	}
	assert.Equal(t, []history.Tier{
		history.TierHash, history.TierPrefix, history.TierRecentLength, history.TierRapid, history.TierFinalHash,
	}, seen)
}

func TestHistoryStore_Record_FindError(t *testing.T) {
	store, repo, _ := newTestHistoryStore()
	repo.findErr = errors.New("disk I/O error")

	id, tier, err := store.Record(context.Background(), summaryRecord("7", "u", "A"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDatabase)
	assert.Zero(t, id)
	assert.Empty(t, tier)
}

func TestHistoryStore_Record_CreateError(t *testing.T) {
	store, repo, _ := newTestHistoryStore()
	repo.createErr = errors.New("database is locked")

	_, _, err := store.Record(context.Background(), summaryRecord("7", "u", "A"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDatabase)
	assert.Contains(t, err.Error(), "database is locked")
}

// finalHashRepository reports a concurrent insert only to the final tier.
type finalHashRepository struct {
	*mockHistoryRepository
}

func (r finalHashRepository) FindDuplicate(ctx context.Context, c history.Criteria) (*secondary.HistoryRecord, error) {
	if c.Hash != "" && !c.Since.IsZero() {
		return &secondary.HistoryRecord{ID: 42}, nil
	}
	return r.mockHistoryRepository.FindDuplicate(ctx, c)
}

func TestHistoryStore_Record_FinalHashCatchesLateDuplicate(t *testing.T) {
	repo := finalHashRepository{newMockHistoryRepository()}
	store := NewHistoryStore(repo, newFakeClock().Now, nil, nil)

	id, tier, err := store.Record(context.Background(), summaryRecord("7", "u", "A"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, history.TierFinalHash, tier)
	assert.Equal(t, 0, repo.count())
}
