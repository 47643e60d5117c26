package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the reminder engine's prometheus collectors
type Metrics struct {
	scheduled    *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	tickDuration prometheus.Histogram
	tickErrors   prometheus.Counter
}

// NewMetrics creates and registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwell",
			Subsystem: "reminders",
			Name:      "scheduled_total",
			Help:      "Reminders scheduled, by channel.",
		}, []string{"method"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwell",
			Subsystem: "reminders",
			Name:      "dispatch_outcomes_total",
			Help:      "Dispatched reminders, by outcome.",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bookwell",
			Subsystem: "reminders",
			Name:      "dispatch_tick_seconds",
			Help:      "Duration of one dispatch tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookwell",
			Subsystem: "reminders",
			Name:      "dispatch_tick_errors_total",
			Help:      "Dispatch ticks abandoned because the store was unavailable.",
		}),
	}
	reg.MustRegister(m.scheduled, m.outcomes, m.tickDuration, m.tickErrors)
	return m
}

// The methods below are no-ops on a nil *Metrics so callers need no guard.

func (m *Metrics) observeScheduled(method string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.scheduled.WithLabelValues(method).Add(float64(n))
}

func (m *Metrics) observeOutcome(o outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) observeTick(started time.Time, err error) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		m.tickErrors.Inc()
	}
}
