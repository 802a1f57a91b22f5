package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,CallerResolver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contractpay/internal/authz"
	"contractpay/internal/payroll/models"
	"contractpay/internal/payroll/service"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/requestcontext"
)

// Service defines the payroll operations exposed over HTTP.
type Service interface {
	ListPayouts(ctx context.Context, caller authz.Caller, filter models.Filter) (*service.PayoutList, error)
	ProcessBatch(ctx context.Context, caller authz.Caller, ids []id.PayoutID) (*models.BatchResult, error)
	CompletePayout(ctx context.Context, caller authz.Caller, payoutID id.PayoutID) (*models.Payout, error)
	FailPayout(ctx context.Context, caller authz.Caller, payoutID id.PayoutID, reason string) (*models.Payout, error)
	YearSummary(ctx context.Context, caller authz.Caller, taxYear int) (*models.YearSummary, error)
}

type CallerResolver interface {
	FromContext(ctx context.Context) (authz.Caller, error)
}

// Handler serves the /payroll routes. Every route is admin-only: the caller
// is checked before any input is parsed, and the service checks again.
type Handler struct {
	service  Service
	resolver CallerResolver
	logger   *slog.Logger
}

func New(svc Service, resolver CallerResolver, logger *slog.Logger) *Handler {
	return &Handler{service: svc, resolver: resolver, logger: logger}
}

// Register mounts the routes. mutating wraps the money-moving routes.
func (h *Handler) Register(r chi.Router, mutating ...func(http.Handler) http.Handler) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/payouts", h.handleList)
		r.With(mutating...).Post("/payouts/process", h.handleProcess)
		r.With(mutating...).Post("/payouts/{id}/complete", h.handleComplete)
		r.With(mutating...).Post("/payouts/{id}/fail", h.handleFail)
		r.Get("/summary/{year}", h.handleSummary)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.admin(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, err := h.service.ListPayouts(ctx, caller, filter)
	if err != nil {
		h.writeError(ctx, w, "failed to list payouts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(list))
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.admin(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProcessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.ProcessBatch(ctx, caller, req.ParsedIDs())
	if err != nil {
		h.writeError(ctx, w, "failed to process payouts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(res))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, payoutID, ok := h.adminAndPayoutID(w, r)
	if !ok {
		return
	}
	p, err := h.service.CompletePayout(ctx, caller, payoutID)
	if err != nil {
		h.writeError(ctx, w, "failed to complete payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPayoutResponse(p))
}

func (h *Handler) handleFail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, payoutID, ok := h.adminAndPayoutID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FailRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.FailPayout(ctx, caller, payoutID, req.Reason)
	if err != nil {
		h.writeError(ctx, w, "failed to fail payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPayoutResponse(p))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.admin(w, r)
	if !ok {
		return
	}
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.YearSummary(ctx, caller, year)
	if err != nil {
		h.writeError(ctx, w, "failed to build year summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// admin resolves the caller and rejects non-admins.
func (h *Handler) admin(w http.ResponseWriter, r *http.Request) (authz.Caller, bool) {
	caller, err := h.resolver.FromContext(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "failed to resolve caller", err)
		return authz.Caller{}, false
	}
	if err := authz.RequireAdmin(caller); err != nil {
		h.writeError(r.Context(), w, "payroll access denied", err)
		return authz.Caller{}, false
	}
	return caller, true
}

func (h *Handler) adminAndPayoutID(w http.ResponseWriter, r *http.Request) (authz.Caller, id.PayoutID, bool) {
	caller, ok := h.admin(w, r)
	if !ok {
		return authz.Caller{}, id.PayoutID{}, false
	}
	payoutID, err := id.ParsePayoutID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return authz.Caller{}, id.PayoutID{}, false
	}
	return caller, payoutID, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	httputil.WriteError(w, err)
}
