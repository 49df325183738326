// Package metrics exposes Prometheus instruments for slot resolution and
// booking.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes used as the "outcome" label.
const (
	OutcomeCreated     = "created"
	OutcomeConflict    = "conflict"
	OutcomeInvalidSlot = "invalid_slot"
	OutcomeInvalid     = "invalid"
	OutcomeLockTimeout = "lock_timeout"
	OutcomeError       = "error"
)

type AgendaMetrics struct {
	bookingAttempts *prometheus.CounterVec
	bookingLatency  prometheus.Histogram
	slotQueries     prometheus.Counter
	slotsGenerated  prometheus.Histogram
}

func NewAgendaMetrics(reg prometheus.Registerer) *AgendaMetrics {
	m := &AgendaMetrics{
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "booking_attempts_total",
			Help:      "Reservation attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agenda",
			Name:      "booking_latency_seconds",
			Help:      "Time spent resolving and persisting a reservation",
			Buckets:   prometheus.DefBuckets,
		}),
		slotQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agenda",
			Name:      "slot_queries_total",
			Help:      "Slot availability queries served",
		}),
		slotsGenerated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agenda",
			Name:      "slots_generated",
			Help:      "Slots returned per availability query",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingAttempts, m.bookingLatency, m.slotQueries, m.slotsGenerated)
	return m
}

func (m *AgendaMetrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(outcome).Inc()
	m.bookingLatency.Observe(seconds)
}

func (m *AgendaMetrics) ObserveSlotQuery(slots int) {
	if m == nil {
		return
	}
	m.slotQueries.Inc()
	m.slotsGenerated.Observe(float64(slots))
}

// Handler serves the metrics gathered by g, or the default gatherer when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
