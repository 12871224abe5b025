// Package metrics provides the Prometheus collectors for save, backup, history
// and delete activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "llmtxt"

// Save outcomes.
const (
	OutcomeSaved   = "saved"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Collector holds the metrics shared by the adapters and services.
type Collector struct {
	SavesTotal        *prometheus.CounterVec
	BackupsTotal      *prometheus.CounterVec
	HistoryDuplicates *prometheus.CounterVec
	HistoryInserts    prometheus.Counter
	DeleteFiles       *prometheus.CounterVec
	LockWait          prometheus.Histogram
	LockTimeouts      prometheus.Counter
	ReconciledEntries prometheus.Counter
	DocRootEvents     *prometheus.CounterVec
	PipelineRequests  *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		SavesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "saves_total",
				Help:      "Save requests by output kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		BackupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "backups_total",
				Help:      "Backup attempts by outcome (created, reused, failed)",
			},
			[]string{"outcome"},
		),
		HistoryDuplicates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "history_duplicates_total",
				Help:      "History records suppressed as duplicates, by tier",
			},
			[]string{"tier"},
		),
		HistoryInserts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "history_inserts_total",
				Help:      "History entries inserted",
			},
		),
		DeleteFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "delete_files_total",
				Help:      "Files handled by history deletion, by result",
			},
			[]string{"result"},
		),
		LockWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "lock_wait_seconds",
				Help:      "Time spent waiting for the save lock",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
			},
		),
		LockTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "lock_timeouts_total",
				Help:      "Save lock acquisitions that timed out",
			},
		),
		ReconciledEntries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "reconciled_entries_total",
				Help:      "History entries repointed at a backup",
			},
		),
		DocRootEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "docroot_events_total",
				Help:      "Filesystem events on artifacts in the document root",
			},
			[]string{"op"},
		),
		PipelineRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pipeline_requests_total",
				Help:      "Generation pipeline calls by step and status",
			},
			[]string{"step", "status"},
		),
	}
}
