package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for booking operations.  A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	SuggestionsTotal  *prometheus.CounterVec
	StoreErrorsTotal  *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
}

// New registers the collectors on reg.  Pass prometheus.DefaultRegisterer
// in the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_booking_operations_total",
			Help: "Booking operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "desk_booking_operation_duration_seconds",
			Help:    "Duration of booking operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		SuggestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_booking_suggestions_total",
			Help: "Desk suggestions by reason tier",
		}, []string{"tier"}),

		StoreErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_booking_store_errors_total",
			Help: "Store read failures by ledger operation",
		}, []string{"operation"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_booking_events_published_total",
			Help: "Reservation events handed to the broker by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveOperation records the outcome and latency of one operation.
func (m *Metrics) ObserveOperation(op, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Suggestion counts a produced suggestion.
func (m *Metrics) Suggestion(tier string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(tier).Inc()
}

// StoreError counts a failed ledger read.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(op).Inc()
}

// EventPublished counts a publish attempt.
func (m *Metrics) EventPublished(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(outcome).Inc()
}
