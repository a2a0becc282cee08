package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for order submissions.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

// CartMetrics records cart, persistence, modal and order submission activity.
type CartMetrics struct {
	mutations           *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	submissions         *prometheus.CounterVec
	submissionDuration  prometheus.Histogram
	modalTransitions    *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by kind.",
	}, []string{"kind"})
	persistenceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Failed cart store operations.",
	}, []string{"op"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	submissionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_submission_duration_seconds",
		Help:    "Duration of order submission calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	modalTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modal_transitions_total",
		Help: "Cart modal state transitions.",
	}, []string{"from", "to"})
	reg.MustRegister(mutations, persistenceFailures, submissions, submissionDuration, modalTransitions)
	return &CartMetrics{
		mutations:           mutations,
		persistenceFailures: persistenceFailures,
		submissions:         submissions,
		submissionDuration:  submissionDuration,
		modalTransitions:    modalTransitions,
	}
}

// IncMutation counts one cart mutation of the given kind.
func (m *CartMetrics) IncMutation(kind string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncPersistenceFailure counts a failed load/save/clear against the cart store.
func (m *CartMetrics) IncPersistenceFailure(op string) {
	if m == nil || m.persistenceFailures == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveSubmission records the outcome and duration of one order submission.
func (m *CartMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.submissionDuration.Observe(duration.Seconds())
}

// IncModalTransition counts a modal state change.
func (m *CartMetrics) IncModalTransition(from, to string) {
	if m == nil || m.modalTransitions == nil {
		return
	}
	m.modalTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
