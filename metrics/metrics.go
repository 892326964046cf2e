// Package metrics contains Prometheus collectors of the off-chain ratings
// tooling.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ratings"

var (
	// ReceiptPollsTotal counts application log requests made by the
	// confirmation poller.
	ReceiptPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_polls_total",
			Help:      "Total number of transaction receipt requests",
		},
	)

	// ConfirmationsTotal counts finished transaction waits by result.
	ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Total number of finished transaction waits by result",
		},
		[]string{"result"},
	)

	// ConfirmationDuration observes time spent waiting for a receipt.
	ConfirmationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_duration_seconds",
			Help:      "Duration of waiting for transaction receipt",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RowsRenderedTotal counts rows appended to the request list by phase.
	RowsRenderedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rendered_total",
			Help:      "Total number of request rows rendered by sync phase",
		},
		[]string{"phase"},
	)

	// DuplicateEventsTotal counts events skipped by the seen-key set.
	DuplicateEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_events_total",
			Help:      "Total number of events skipped as already rendered",
		},
	)

	// SyncHeight is the last block scanned by the event synchronizer.
	SyncHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_height",
			Help:      "Last block scanned for contract events",
		},
	)
)

// Confirmation results.
const (
	ResultConfirmed = "confirmed"
	ResultTimeout   = "timeout"
	ResultExpired   = "expired"
	ResultError     = "error"
)

// Sync phases.
const (
	PhaseHistory = "history"
	PhaseLive    = "live"
)

// Register registers all collectors in the given registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(ReceiptPollsTotal)
	r.MustRegister(ConfirmationsTotal)
	r.MustRegister(ConfirmationDuration)
	r.MustRegister(RowsRenderedTotal)
	r.MustRegister(DuplicateEventsTotal)
	r.MustRegister(SyncHeight)
}
