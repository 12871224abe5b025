package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/core/history"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// RecordRequest describes one generation event to record.
type RecordRequest struct {
	OwnerID    string
	SourceURL  string
	Kind       artifact.OutputKind
	Summarized string
	Full       string
	FilePath   artifact.PathList
}

// HistoryStore records generation events, suppressing duplicates.
type HistoryStore struct {
	repo    secondary.HistoryRepository
	now     func() time.Time
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewHistoryStore creates a HistoryStore.
func NewHistoryStore(repo secondary.HistoryRepository, now func() time.Time, collector *metrics.Collector, logger *zap.Logger) *HistoryStore {
	return &HistoryStore{
		repo:    repo,
		now:     clockOrDefault(now),
		metrics: collectorOrDefault(collector),
		logger:  logging.Component(logger, "history"),
	}
}

// Record inserts the event unless a prior entry in the same owner, URL and kind
// scope already represents it. It returns the ID of the entry that represents
// the event and, for suppressed duplicates, the tier that matched.
func (s *HistoryStore) Record(ctx context.Context, req RecordRequest) (int64, history.Tier, error) {
	scope := history.Scope{
		OwnerID:   req.OwnerID,
		SourceURL: history.NormalizeSourceURL(req.SourceURL),
		Kind:      string(req.Kind),
	}
	fp := history.NewFingerprint(req.Summarized, req.Full)

	now := s.now()
	for _, tier := range history.PreInsertTiers() {
		id, ok, err := s.match(ctx, tier, scope, fp, now)
		if err != nil {
			return 0, "", err
		}
		if ok {
			return id, tier, nil
		}
	}

	// Last look right before the insert, on a fresh clock reading.
	id, ok, err := s.match(ctx, history.TierFinalHash, scope, fp, s.now())
	if err != nil {
		return 0, "", err
	}
	if ok {
		return id, history.TierFinalHash, nil
	}

	record := &secondary.HistoryRecord{
		OwnerID:           scope.OwnerID,
		SourceURL:         scope.SourceURL,
		OutputKind:        scope.Kind,
		SummarizedContent: req.Summarized,
		FullContent:       req.Full,
		FilePath:          req.FilePath.String(),
		ContentHash:       fp.Hash,
		ContentLength:     fp.Length,
		ContentPrefix:     fp.Prefix,
		CreatedAt:         s.now(),
	}
	id, err = s.repo.Create(ctx, record)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", apperr.ErrDatabase, err)
	}

	s.metrics.HistoryInserts.Inc()
	s.logger.Info("history recorded",
		zap.Int64("id", id),
		zap.String("owner", scope.OwnerID),
		zap.String("kind", scope.Kind),
		zap.String("hash", shortHash(fp.Hash)))
	return id, "", nil
}

// match runs one tier and reports the matching entry's ID.
func (s *HistoryStore) match(ctx context.Context, tier history.Tier, scope history.Scope, fp history.Fingerprint, now time.Time) (int64, bool, error) {
	existing, err := s.repo.FindDuplicate(ctx, history.CriteriaFor(tier, scope, fp, now))
	if err != nil {
		return 0, false, fmt.Errorf("%w: duplicate check (%s): %w", apperr.ErrDatabase, tier, err)
	}
	if existing == nil {
		return 0, false, nil
	}

	s.metrics.HistoryDuplicates.WithLabelValues(string(tier)).Inc()
	s.logger.Info("duplicate history suppressed",
		zap.String("tier", string(tier)),
		zap.Int64("existing_id", existing.ID),
		zap.String("owner", scope.OwnerID),
		zap.String("kind", scope.Kind))
	return existing.ID, true, nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
