package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAggregateIsExact(t *testing.T) {
	payouts := []*Payout{
		{Status: StatusPending, NetAmount: id.Cents(10)},
		{Status: StatusPending, NetAmount: id.Cents(20)},
		{Status: StatusProcessing, NetAmount: id.Cents(12345)},
		{Status: StatusCompleted, NetAmount: id.Cents(5)},
		{Status: StatusFailed, NetAmount: id.Cents(99999)},
	}
	a := Aggregate(payouts)
	assert.Equal(t, "0.30", a.PendingAmount.String())
	assert.Equal(t, id.Cents(12350), a.ProcessedAmount)
}

func TestYearTotals(t *testing.T) {
	var totals YearTotals
	for _, p := range []*Payout{
		{Status: StatusCompleted, NetAmount: 100},
		{Status: StatusCompleted, NetAmount: 50},
		{Status: StatusPending, NetAmount: 7},
		{Status: StatusProcessing, NetAmount: 3},
		{Status: StatusFailed, NetAmount: 1000},
	} {
		totals.Add(p)
	}
	assert.Equal(t, id.Cents(150), totals.CompletedAmount)
	assert.Equal(t, 2, totals.CompletedCount)
	assert.Equal(t, id.Cents(7), totals.PendingAmount)
	assert.Equal(t, 1, totals.ProcessingCount)
}

func TestFilter(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("validate", func(t *testing.T) {
		require.NoError(t, Filter{Status: StatusPending, TaxYear: 2024, From: &from, To: &to}.Validate())
		assert.True(t, dErrors.HasCode(Filter{TaxYear: 1999}.Validate(), dErrors.CodeValidation))
		assert.True(t, dErrors.HasCode(Filter{From: &to, To: &from}.Validate(), dErrors.CodeValidation))
		assert.True(t, dErrors.HasCode(Filter{Status: "paid"}.Validate(), dErrors.CodeValidation))
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		f := Filter{From: &from, To: &to}
		assert.True(t, f.Matches(&Payout{ScheduledDate: from}))
		assert.True(t, f.Matches(&Payout{ScheduledDate: to}))
		assert.False(t, f.Matches(&Payout{ScheduledDate: to.AddDate(0, 0, 1)}))
	})
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Pending ")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st)

	_, err = ParseStatus("paid")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
