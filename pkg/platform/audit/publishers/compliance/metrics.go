package compliance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "contractpay/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for compliance audit emission.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics creates and registers the compliance audit metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contractpay_audit_compliance_events_total",
			Help: "Total number of compliance events persisted",
		}, []string{"event_type"}),
		PersistFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contractpay_audit_compliance_persist_failures_total",
			Help: "Total number of compliance event persistence failures by policy",
		}, []string{"policy"}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "contractpay_audit_compliance_persist_duration_seconds",
			Help:    "Duration of compliance event persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncEventsEmitted(eventType audit.EventType) {
	if m != nil {
		m.EventsEmitted.WithLabelValues(string(eventType)).Inc()
	}
}

func (m *Metrics) IncPersistFailures(policy audit.Policy) {
	if m != nil {
		m.PersistFailures.WithLabelValues(policy.String()).Inc()
	}
}

func (m *Metrics) ObservePersistDuration(d time.Duration) {
	if m != nil {
		m.PersistDuration.Observe(d.Seconds())
	}
}
