package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published prometheus.Counter
	Failures  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_compliance_relay_published_total",
			Help: "Compliance events delivered downstream",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_compliance_relay_failures_total",
			Help: "Relay drains that stopped on an error",
		}),
	}
}

func (m *Metrics) addPublished(n int) {
	if m != nil && n > 0 {
		m.Published.Add(float64(n))
	}
}

func (m *Metrics) incFailure() {
	if m != nil {
		m.Failures.Inc()
	}
}
