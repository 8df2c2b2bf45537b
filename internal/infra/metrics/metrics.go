package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptFailuresTotal tracks failed attempts per error category
	AttemptFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrykit_attempt_failures_total",
			Help: "Total number of failed attempts",
		},
		[]string{"category"},
	)

	// RetriesTotal tracks scheduled retries per error category
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrykit_retries_total",
			Help: "Total number of retries scheduled after a transient failure",
		},
		[]string{"category"},
	)

	// BackoffDelay tracks the computed wait between attempts
	BackoffDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrykit_backoff_delay_seconds",
			Help:    "Backoff delay before the next attempt in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 10, 30},
		},
	)

	// OutcomesTotal tracks how operations finished
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrykit_outcomes_total",
			Help: "Total number of finished operations by outcome",
		},
		[]string{"outcome", "category"},
	)

	// JournalEntriesTotal tracks journal writes per severity
	JournalEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrykit_journal_entries_total",
			Help: "Total number of error journal entries",
		},
		[]string{"severity", "recovered"},
	)

	// ProbeLatency tracks probe round trips including retries
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrykit_probe_latency_seconds",
			Help:    "Probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	// ProbeUp is 1 when the last probe of a target succeeded
	ProbeUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retrykit_probe_up",
			Help: "Whether the last probe of the target succeeded",
		},
		[]string{"target"},
	)

	// DBConnectionPoolUsage tracks postgres pool usage in percent
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retrykit_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)

// Outcome label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRecovered = "recovered"
	OutcomeGaveUp    = "gave_up"
)
