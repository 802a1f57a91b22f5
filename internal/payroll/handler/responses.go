package handler

import (
	"time"

	"contractpay/internal/payroll/models"
	"contractpay/internal/payroll/service"
	id "contractpay/pkg/domain"
)

// PayoutResponse is the wire form of a payout.
type PayoutResponse struct {
	ID                  id.PayoutID   `json:"id"`
	TalentID            id.TalentID   `json:"talent_id"`
	ContractID          id.ContractID `json:"contract_id"`
	NetAmount           id.Cents      `json:"net_amount"`
	ScheduledDate       string        `json:"scheduled_date"`
	TaxYear             int           `json:"tax_year"`
	Status              string        `json:"status"`
	ProcessingStartedAt *time.Time    `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	FailedAt            *time.Time    `json:"failed_at,omitempty"`
	FailureReason       string        `json:"failure_reason,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type ListResponse struct {
	Payouts         []PayoutResponse `json:"payouts"`
	Count           int              `json:"count"`
	PendingAmount   id.Cents         `json:"pending_amount"`
	ProcessedAmount id.Cents         `json:"processed_amount"`
}

type BatchResponse struct {
	ProcessedCount int              `json:"processed_count"`
	TotalAmount    id.Cents         `json:"total_amount"`
	Payouts        []PayoutResponse `json:"payouts"`
	ExcludedIDs    []id.PayoutID    `json:"excluded_ids"`
}

type SummaryResponse struct {
	TaxYear          int      `json:"tax_year"`
	CompletedAmount  id.Cents `json:"completed_amount"`
	CompletedCount   int      `json:"completed_count"`
	PendingAmount    id.Cents `json:"pending_amount"`
	PendingCount     int      `json:"pending_count"`
	ProcessingAmount id.Cents `json:"processing_amount"`
	ProcessingCount  int      `json:"processing_count"`
	AZEligibleHours  id.Hours `json:"az_eligible_hours"`
}

func toPayoutResponse(p *models.Payout) PayoutResponse {
	return PayoutResponse{
		ID:                  p.ID,
		TalentID:            p.TalentID,
		ContractID:          p.ContractID,
		NetAmount:           p.NetAmount,
		ScheduledDate:       p.ScheduledDate.Format(time.DateOnly),
		TaxYear:             p.TaxYear,
		Status:              string(p.Status),
		ProcessingStartedAt: p.ProcessingStartedAt,
		CompletedAt:         p.CompletedAt,
		FailedAt:            p.FailedAt,
		FailureReason:       p.FailureReason,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func toPayoutResponses(payouts []*models.Payout) []PayoutResponse {
	out := make([]PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutResponse(p))
	}
	return out
}

func toListResponse(list *service.PayoutList) ListResponse {
	return ListResponse{
		Payouts:         toPayoutResponses(list.Payouts),
		Count:           len(list.Payouts),
		PendingAmount:   list.PendingAmount,
		ProcessedAmount: list.ProcessedAmount,
	}
}

func toBatchResponse(res *models.BatchResult) BatchResponse {
	excluded := res.Excluded
	if excluded == nil {
		excluded = []id.PayoutID{}
	}
	return BatchResponse{
		ProcessedCount: res.ProcessedCount(),
		TotalAmount:    res.TotalAmount,
		Payouts:        toPayoutResponses(res.Processed),
		ExcludedIDs:    excluded,
	}
}

func toSummaryResponse(s *models.YearSummary) SummaryResponse {
	return SummaryResponse{
		TaxYear:          s.TaxYear,
		CompletedAmount:  s.CompletedAmount,
		CompletedCount:   s.CompletedCount,
		PendingAmount:    s.PendingAmount,
		PendingCount:     s.PendingCount,
		ProcessingAmount: s.ProcessingAmount,
		ProcessingCount:  s.ProcessingCount,
		AZEligibleHours:  s.AZEligibleHours,
	}
}
