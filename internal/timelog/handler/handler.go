package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contractpay/internal/authz"
	"contractpay/internal/timelog/models"
	"contractpay/internal/timelog/service"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/requestcontext"
)

// Service defines the time-log operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, caller authz.Caller, in service.CreateInput) (*models.TimeLog, error)
	Get(ctx context.Context, caller authz.Caller, logID id.TimeLogID) (*models.TimeLog, error)
	List(ctx context.Context, caller authz.Caller, filter service.ListFilter) ([]*models.TimeLog, error)
	Update(ctx context.Context, caller authz.Caller, logID id.TimeLogID, patch models.Patch) (*models.TimeLog, error)
	Delete(ctx context.Context, caller authz.Caller, logID id.TimeLogID) error
	SubmitBatch(ctx context.Context, caller authz.Caller, ids []id.TimeLogID) ([]*models.TimeLog, error)
	Decide(ctx context.Context, caller authz.Caller, logID id.TimeLogID, decision models.Decision, notes string) (*models.TimeLog, error)
	History(ctx context.Context, caller authz.Caller, logID id.TimeLogID) ([]models.Audit, error)
}

// CallerResolver resolves the authenticated user on the request context.
type CallerResolver interface {
	FromContext(ctx context.Context) (authz.Caller, error)
}

// Handler serves the /time-logs routes.
type Handler struct {
	service  Service
	resolver CallerResolver
	logger   *slog.Logger
}

func New(svc Service, resolver CallerResolver, logger *slog.Logger) *Handler {
	return &Handler{service: svc, resolver: resolver, logger: logger}
}

// Register mounts the routes. Authentication middleware is applied by the
// caller's router group.
func (h *Handler) Register(r chi.Router) {
	r.Route("/time-logs", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Post("/submit", h.handleSubmit)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/decision", h.handleDecide)
		r.Get("/{id}/audit", h.handleHistory)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	log, err := h.service.Create(ctx, caller, service.CreateInput{
		ContractID: req.ParsedContractID(),
		Details:    req.ParsedDetails(),
	})
	if err != nil {
		h.writeError(ctx, w, "failed to create time log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTimeLogResponse(log))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var filter service.ListFilter
	q := r.URL.Query()
	if raw := q.Get("contract_id"); raw != "" {
		contractID, err := id.ParseContractID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.ContractID = contractID
	}
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}

	logs, err := h.service.List(ctx, caller, filter)
	if err != nil {
		h.writeError(ctx, w, "failed to list time logs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{TimeLogs: toTimeLogResponses(logs), Count: len(logs)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, logID, ok := h.callerAndLogID(w, r)
	if !ok {
		return
	}
	log, err := h.service.Get(ctx, caller, logID)
	if err != nil {
		h.writeError(ctx, w, "failed to load time log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTimeLogResponse(log))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, logID, ok := h.callerAndLogID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	log, err := h.service.Update(ctx, caller, logID, req.ParsedPatch())
	if err != nil {
		h.writeError(ctx, w, "failed to update time log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTimeLogResponse(log))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, logID, ok := h.callerAndLogID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, caller, logID); err != nil {
		h.writeError(ctx, w, "failed to delete time log", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	logs, err := h.service.SubmitBatch(ctx, caller, req.ParsedIDs())
	if err != nil {
		h.writeError(ctx, w, "failed to submit time logs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{Submitted: toTimeLogResponses(logs), Count: len(logs)})
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, logID, ok := h.callerAndLogID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	log, err := h.service.Decide(ctx, caller, logID, req.ParsedDecision(), req.Notes)
	if err != nil {
		h.writeError(ctx, w, "failed to record decision", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTimeLogResponse(log))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, logID, ok := h.callerAndLogID(w, r)
	if !ok {
		return
	}
	trail, err := h.service.History(ctx, caller, logID)
	if err != nil {
		h.writeError(ctx, w, "failed to load audit trail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{TimeLogID: logID, Entries: toAuditResponses(trail)})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (authz.Caller, bool) {
	caller, err := h.resolver.FromContext(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "failed to resolve caller", err)
		return authz.Caller{}, false
	}
	return caller, true
}

func (h *Handler) callerAndLogID(w http.ResponseWriter, r *http.Request) (authz.Caller, id.TimeLogID, bool) {
	logID, err := id.ParseTimeLogID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return authz.Caller{}, id.TimeLogID{}, false
	}
	caller, ok := h.caller(w, r)
	return caller, logID, ok
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
