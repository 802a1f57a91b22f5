package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
	Degraded  prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contractpay_rate_limit_decisions_total",
			Help: "Rate limit checks by class and outcome",
		}, []string{"class", "outcome"}),
		Degraded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "contractpay_rate_limit_degraded",
			Help: "1 while checks run on the in-process fallback store",
		}),
	}
}

func (m *Metrics) decision(class Class, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(string(class), outcome).Inc()
	}
}

func (m *Metrics) setDegraded(on bool) {
	if m == nil {
		return
	}
	if on {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
