package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "contractpay/pkg/domain"
)

// Metrics provides observability for payroll batches.
type Metrics struct {
	// Payout status transitions by target status
	Transitions *prometheus.CounterVec

	// Payouts excluded from a batch because they were not pending
	ExcludedPayouts prometheus.Counter

	// Batches refused because nothing was pending
	EmptyBatches prometheus.Counter

	// Amount moved to processing, in cents
	ProcessedCents prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contractpay_payroll_transitions_total",
			Help: "Payout status transitions by target status",
		}, []string{"to"}),
		ExcludedPayouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_payroll_excluded_payouts_total",
			Help: "Requested payouts left out of a batch because they were not pending",
		}),
		EmptyBatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_payroll_empty_batches_total",
			Help: "Batch requests refused because no requested payout was pending",
		}),
		ProcessedCents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_payroll_processed_cents_total",
			Help: "Total payout amount moved to processing, in cents",
		}),
	}
}

func (m *Metrics) RecordBatch(processed, excluded int, amount id.Cents) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues("processing").Add(float64(processed))
	m.ExcludedPayouts.Add(float64(excluded))
	m.ProcessedCents.Add(float64(amount))
}

func (m *Metrics) IncEmptyBatch() {
	if m != nil {
		m.EmptyBatches.Inc()
	}
}

func (m *Metrics) IncTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}
