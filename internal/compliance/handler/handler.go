package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"contractpay/internal/authz"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/requestcontext"
)

// Reader lists compliance events.
type Reader interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.ComplianceEvent, error)
}

type CallerResolver interface {
	FromContext(ctx context.Context) (authz.Caller, error)
}

const maxListLimit = 500

// Handler serves the admin-only compliance event log.
type Handler struct {
	reader   Reader
	resolver CallerResolver
	logger   *slog.Logger
}

func New(reader Reader, resolver CallerResolver, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, resolver: resolver, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/compliance/events", h.handleList)
}

type ListResponse struct {
	Events []audit.ComplianceEvent `json:"events"`
	Count  int                     `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := h.resolver.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := authz.RequireAdmin(caller); err != nil {
		httputil.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		EntityType: audit.EntityType(q.Get("entity_type")),
		EntityID:   q.Get("entity_id"),
	}
	switch filter.EntityType {
	case "", audit.EntityTimeLog, audit.EntityEscrow, audit.EntityPayout:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "entity_type must be one of time_log, escrow, payout"))
		return
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500"))
			return
		}
		filter.Limit = limit
	}

	events, err := h.reader.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list compliance events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list compliance events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Events: events, Count: len(events)})
}
