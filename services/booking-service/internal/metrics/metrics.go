// Package metrics holds the Prometheus instruments of the booking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Operations     *prometheus.CounterVec
	CommitDuration *prometheus.HistogramVec
	SlotQueries    prometheus.Histogram
	SlotsOffered   prometheus.Histogram
	Notifications  *prometheus.CounterVec
	Completed      prometheus.Counter
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_operations_total",
				Help: "Booking operations by operation and outcome code",
			},
			[]string{"operation", "outcome"},
		),
		CommitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "booking_commit_duration_seconds",
				Help:    "Duration of the transactional commit step",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),
		SlotQueries: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "booking_slot_query_duration_seconds",
				Help:    "Duration of availability computations",
				Buckets: prometheus.DefBuckets,
			},
		),
		SlotsOffered: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "booking_slots_available",
				Help:    "Number of available slots returned per query",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_notifications_total",
				Help: "Post-commit notification dispatches by event type and result",
			},
			[]string{"event_type", "result"},
		),
		Completed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "booking_appointments_completed_total",
				Help: "Appointments moved to COMPLETED by the sweeper",
			},
		),
	}
}

// ObserveCommit records the commit latency since start.
func (m *Metrics) ObserveCommit(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.CommitDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Outcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Notification(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) SlotQuery(start time.Time, available int) {
	if m == nil {
		return
	}
	m.SlotQueries.Observe(time.Since(start).Seconds())
	m.SlotsOffered.Observe(float64(available))
}

func (m *Metrics) AddCompleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Completed.Add(float64(n))
}
