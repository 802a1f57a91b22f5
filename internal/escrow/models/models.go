package models

import (
	"time"

	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

// FundingStatus reports whether a contract has ever been funded.
type FundingStatus string

const (
	FundingUnfunded FundingStatus = "unfunded"
	FundingFunded   FundingStatus = "funded"
)

// Record is the escrow ledger row for one contract.
//
// Balance only grows through funding and only shrinks through payout debits;
// Deposited only grows. 0 <= Balance <= Deposited always holds.
type Record struct {
	ContractID    id.ContractID
	Balance       id.Cents
	Deposited     id.Cents
	FundingStatus FundingStatus
	FundedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckInvariant reports a record whose counters have drifted out of bounds.
func (r *Record) CheckInvariant() error {
	if r.Balance < 0 || r.Balance > r.Deposited {
		return dErrors.New(dErrors.CodeInvariantViolation, "escrow balance out of bounds").
			WithDetails(r.ContractID.String())
	}
	return nil
}

// MaxAmount caps a single money movement at 1,000,000,000.00.
const MaxAmount id.Cents = 100_000_000_000

// ValidateAmount rejects non-positive and oversized money movements.
func ValidateAmount(amount id.Cents) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than 0")
	}
	if amount > MaxAmount {
		return dErrors.New(dErrors.CodeValidation, "amount must not exceed "+MaxAmount.String())
	}
	return nil
}
