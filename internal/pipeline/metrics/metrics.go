package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the pipeline module.
type Metrics struct {
	// Transition outcomes by kind and country
	TransitionOutcome *prometheus.CounterVec

	// Reopen outcomes by result
	ReopenOutcome *prometheus.CounterVec

	// Full transition evaluation latency including evidence gathering
	TransitionLatency prometheus.Histogram

	// Snapshot cache effectiveness
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		TransitionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stepway_pipeline_transition_outcomes_total",
			Help: "Total phase transition outcomes by kind and country",
		}, []string{"outcome", "country"}),

		ReopenOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stepway_pipeline_reopen_outcomes_total",
			Help: "Total phase reopen outcomes by result",
		}, []string{"outcome"}),

		TransitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stepway_pipeline_transition_duration_seconds",
			Help:    "Duration of full transition evaluation including evidence gathering",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stepway_pipeline_snapshot_cache_lookups_total",
			Help: "Snapshot cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
	}
}

// IncrementTransition records a transition outcome.
func (m *Metrics) IncrementTransition(outcome, country string) {
	if m != nil {
		m.TransitionOutcome.WithLabelValues(outcome, country).Inc()
	}
}

// IncrementReopen records a reopen outcome.
func (m *Metrics) IncrementReopen(outcome string) {
	if m != nil {
		m.ReopenOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveTransitionLatency records the total evaluation duration.
func (m *Metrics) ObserveTransitionLatency(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}

// IncrementCacheLookup records a snapshot cache hit or miss.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
