package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for exam registration.
// Every method is safe on a nil receiver so tests can omit metrics.
type Metrics struct {
	Outcomes             *prometheus.CounterVec
	TxDuration           prometheus.Histogram
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter
	CacheLookups         *prometheus.CounterVec
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "examreg_registration_outcomes_total",
			Help: "Registration attempts by outcome code",
		}, []string{"code"}),
		TxDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "examreg_registration_tx_duration_seconds",
			Help:    "Duration of the registration unit of work, commit included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "examreg_confirmation_sent_total",
			Help: "Confirmation emails handed to the dispatcher successfully",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "examreg_confirmation_failures_total",
			Help: "Confirmation emails that failed after commit",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "examreg_exam_cache_lookups_total",
			Help: "Exam catalog cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// IncOutcome records one registration attempt finishing with code.
func (m *Metrics) IncOutcome(code string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(code).Inc()
}

// ObserveTx records the duration of a unit of work started at start.
func (m *Metrics) ObserveTx(start time.Time) {
	if m == nil {
		return
	}
	m.TxDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncNotificationSent() {
	if m == nil {
		return
	}
	m.NotificationsSent.Inc()
}

func (m *Metrics) IncNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

// IncCacheLookup records a cache lookup; result is hit, miss or error.
func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
