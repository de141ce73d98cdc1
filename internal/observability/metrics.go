package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the engine, the posting
// service, and the event publisher. A nil *Metrics is a valid no-op receiver
// so unit tests can run without touching a registry.
type Metrics struct {
	// Engine operations
	EngineOps        *prometheus.CounterVec
	EngineOpDuration *prometheus.HistogramVec

	// Ledger
	JournalEntriesPosted prometheus.Counter
	JournalLinesPosted   prometheus.Counter

	// Outbound events
	EventPublishFailures prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	opBuckets := []float64{
		0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0,
	}

	return &Metrics{
		EngineOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capledger_engine_operations_total",
			Help: "Engine operations by name and outcome",
		}, []string{"op", "status"}),

		EngineOpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capledger_engine_operation_duration_seconds",
			Help:    "Wall time of one engine operation including its transaction",
			Buckets: opBuckets,
		}, []string{"op"}),

		JournalEntriesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "capledger_journal_entries_posted_total",
			Help: "Journal entries written by the posting service",
		}),

		JournalLinesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "capledger_journal_lines_posted_total",
			Help: "Journal entry lines written by the posting service",
		}),

		EventPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "capledger_event_publish_failures_total",
			Help: "Outbound event publishes that failed (non-fatal)",
		}),
	}
}

// RecordOp records one engine operation outcome.
func (m *Metrics) RecordOp(op, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EngineOps.WithLabelValues(op, status).Inc()
	m.EngineOpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// JournalPosted records one posted entry with its line count.
func (m *Metrics) JournalPosted(lines int) {
	if m == nil {
		return
	}
	m.JournalEntriesPosted.Inc()
	m.JournalLinesPosted.Add(float64(lines))
}

// PublishFailed records one dropped outbound event.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishFailures.Inc()
}
