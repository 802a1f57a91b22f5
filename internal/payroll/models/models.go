package models

import (
	"fmt"
	"strings"
	"time"

	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

// Status is a payout's position in the payroll pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// transitions lists every legal move. There is no way back.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of pending, processing, completed, failed")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payout is money owed to a talent under one contract.
type Payout struct {
	ID                  id.PayoutID
	TalentID            id.TalentID
	ContractID          id.ContractID
	NetAmount           id.Cents
	ScheduledDate       time.Time
	TaxYear             int
	Status              Status
	ProcessingStartedAt *time.Time
	CompletedAt         *time.Time
	FailedAt            *time.Time
	FailureReason       string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Filter narrows ListPayouts. From and To bound scheduled_date inclusively.
type Filter struct {
	Status   Status
	TaxYear  int
	From     *time.Time
	To       *time.Time
	TalentID id.TalentID
}

// MinTaxYear and MaxTaxYear bound accepted tax years.
const (
	MinTaxYear = 2000
	MaxTaxYear = 2100
)

func ValidateTaxYear(year int) error {
	if year < MinTaxYear || year > MaxTaxYear {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tax_year must be between %d and %d", MinTaxYear, MaxTaxYear))
	}
	return nil
}

func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid status filter")
	}
	if f.TaxYear != 0 {
		if err := ValidateTaxYear(f.TaxYear); err != nil {
			return err
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return dErrors.New(dErrors.CodeValidation, "to must not be before from")
	}
	return nil
}

// Matches reports whether p passes f.
func (f Filter) Matches(p *Payout) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.TaxYear != 0 && p.TaxYear != f.TaxYear {
		return false
	}
	if f.From != nil && p.ScheduledDate.Before(*f.From) {
		return false
	}
	if f.To != nil && p.ScheduledDate.After(*f.To) {
		return false
	}
	if !f.TalentID.IsNil() && p.TalentID != f.TalentID {
		return false
	}
	return true
}

// Aggregates are exact sums over a listed set. Processed counts both
// processing and completed payouts.
type Aggregates struct {
	PendingAmount   id.Cents
	ProcessedAmount id.Cents
}

func Aggregate(payouts []*Payout) Aggregates {
	var a Aggregates
	for _, p := range payouts {
		switch p.Status {
		case StatusPending:
			a.PendingAmount += p.NetAmount
		case StatusProcessing, StatusCompleted:
			a.ProcessedAmount += p.NetAmount
		}
	}
	return a
}

// YearTotals is the payout side of a tax-year summary.
type YearTotals struct {
	CompletedAmount  id.Cents
	CompletedCount   int
	PendingAmount    id.Cents
	PendingCount     int
	ProcessingAmount id.Cents
	ProcessingCount  int
}

// Add folds p into t.
func (t *YearTotals) Add(p *Payout) {
	switch p.Status {
	case StatusCompleted:
		t.CompletedAmount += p.NetAmount
		t.CompletedCount++
	case StatusPending:
		t.PendingAmount += p.NetAmount
		t.PendingCount++
	case StatusProcessing:
		t.ProcessingAmount += p.NetAmount
		t.ProcessingCount++
	}
}

// YearSummary combines payout totals with approved AZ-eligible hours.
type YearSummary struct {
	TaxYear int
	YearTotals
	AZEligibleHours id.Hours
}

// BatchResult reports one ProcessBatch call.
type BatchResult struct {
	Processed   []*Payout
	TotalAmount id.Cents
	Excluded    []id.PayoutID
}

func (r BatchResult) ProcessedCount() int { return len(r.Processed) }

// ConflictDetail formats an offending payout for error details.
func ConflictDetail(payoutID id.PayoutID, status Status) string {
	return fmt.Sprintf("%s: status %s", payoutID, status)
}

// MaxFailureReason caps the stored failure reason.
const MaxFailureReason = 1000
