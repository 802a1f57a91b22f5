package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the time-log workflow.
type Metrics struct {
	// Status transitions by from/to status
	Transitions *prometheus.CounterVec

	// Logs per accepted submission batch
	SubmitBatchSize prometheus.Histogram

	// Rejected operations by operation and error code
	Rejections *prometheus.CounterVec
}

// New creates a new Metrics instance with all time-log metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contractpay_timelog_transitions_total",
			Help: "Time-log status transitions by from and to status",
		}, []string{"from", "to"}),

		SubmitBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "contractpay_timelog_submit_batch_size",
			Help:    "Number of time logs in each accepted submission batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),

		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contractpay_timelog_rejected_operations_total",
			Help: "Time-log operations refused by guard or state checks",
		}, []string{"operation", "code"}),
	}
}

// IncTransition records one status change.
func (m *Metrics) IncTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// ObserveSubmitBatch records the size of an accepted batch.
func (m *Metrics) ObserveSubmitBatch(n int) {
	if m != nil {
		m.SubmitBatchSize.Observe(float64(n))
	}
}

// IncRejection records an operation refused with code.
func (m *Metrics) IncRejection(operation, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, code).Inc()
	}
}
