package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contractpay/internal/authz"
	"contractpay/internal/escrow/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/requestcontext"
)

// Service defines the escrow operations exposed over HTTP.
type Service interface {
	Fund(ctx context.Context, caller authz.Caller, contractID id.ContractID, amount id.Cents) (*models.Record, error)
	List(ctx context.Context, caller authz.Caller, contractID id.ContractID) ([]*models.Record, error)
}

type CallerResolver interface {
	FromContext(ctx context.Context) (authz.Caller, error)
}

// Handler serves the /escrow routes.
type Handler struct {
	service  Service
	resolver CallerResolver
	logger   *slog.Logger
}

func New(svc Service, resolver CallerResolver, logger *slog.Logger) *Handler {
	return &Handler{service: svc, resolver: resolver, logger: logger}
}

// Register mounts the routes. mutating wraps the fund route, typically with
// idempotency-key handling.
func (h *Handler) Register(r chi.Router, mutating ...func(http.Handler) http.Handler) {
	r.Route("/escrow", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(mutating...).Post("/fund", h.handleFund)
	})
}

// FundRequest is the body of POST /escrow/fund.
type FundRequest struct {
	ContractID string   `json:"contract_id" validate:"required"`
	Amount     id.Cents `json:"amount" validate:"required"`

	parsedContractID id.ContractID
}

func (r *FundRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	contractID, err := id.ParseContractID(r.ContractID)
	if err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than 0")
	}
	r.parsedContractID = contractID
	return nil
}

func (r *FundRequest) ParsedContractID() id.ContractID { return r.parsedContractID }

// RecordResponse is the wire form of an escrow record.
type RecordResponse struct {
	ContractID     id.ContractID `json:"contract_id"`
	EscrowBalance  id.Cents      `json:"escrow_balance"`
	FundsDeposited id.Cents      `json:"funds_deposited"`
	FundingStatus  string        `json:"funding_status"`
	FundedAt       *time.Time    `json:"funded_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type ListResponse struct {
	Records []RecordResponse `json:"escrow_records"`
	Count   int              `json:"count"`
}

func toRecordResponse(rec *models.Record) RecordResponse {
	return RecordResponse{
		ContractID:     rec.ContractID,
		EscrowBalance:  rec.Balance,
		FundsDeposited: rec.Deposited,
		FundingStatus:  string(rec.FundingStatus),
		FundedAt:       rec.FundedAt,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func (h *Handler) handleFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, err := h.resolver.FromContext(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to resolve caller", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[FundRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Fund(ctx, caller, req.ParsedContractID(), req.Amount)
	if err != nil {
		h.writeError(ctx, w, "failed to fund escrow", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := h.resolver.FromContext(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to resolve caller", err)
		return
	}
	var contractID id.ContractID
	if raw := r.URL.Query().Get("contract_id"); raw != "" {
		contractID, err = id.ParseContractID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	recs, err := h.service.List(ctx, caller, contractID)
	if err != nil {
		h.writeError(ctx, w, "failed to list escrow records", err)
		return
	}
	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Records: out, Count: len(out)})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
