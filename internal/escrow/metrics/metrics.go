package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "contractpay/pkg/domain"
)

// Metrics provides observability for escrow money movements.
type Metrics struct {
	// Funded amount in minor units
	FundedCents prometheus.Counter

	// Debited amount in minor units
	DebitedCents prometheus.Counter

	// Debits refused for insufficient balance
	InsufficientFunds prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		FundedCents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_escrow_funded_cents_total",
			Help: "Total amount deposited into escrow, in cents",
		}),
		DebitedCents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_escrow_debited_cents_total",
			Help: "Total amount debited from escrow for payouts, in cents",
		}),
		InsufficientFunds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contractpay_escrow_insufficient_funds_total",
			Help: "Escrow debits refused because the balance did not cover the amount",
		}),
	}
}

func (m *Metrics) AddFunded(amount id.Cents) {
	if m != nil {
		m.FundedCents.Add(float64(amount))
	}
}

func (m *Metrics) AddDebited(amount id.Cents) {
	if m != nil {
		m.DebitedCents.Add(float64(amount))
	}
}

func (m *Metrics) IncInsufficientFunds() {
	if m != nil {
		m.InsufficientFunds.Inc()
	}
}
