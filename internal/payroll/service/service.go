package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"contractpay/internal/authz"
	escrowmodels "contractpay/internal/escrow/models"
	"contractpay/internal/payroll/metrics"
	"contractpay/internal/payroll/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/sentinel"
	platformstrings "contractpay/pkg/platform/strings"
	"contractpay/pkg/platform/tx"
	"contractpay/pkg/requestcontext"
)

// Store persists payouts. Status changes are conditional on the current
// status; a miss returns sentinel.ErrInvalidState.
type Store interface {
	FindByIDForUpdate(ctx context.Context, payoutID id.PayoutID) (*models.Payout, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Payout, error)
	MarkProcessing(ctx context.Context, ids []id.PayoutID, at time.Time) ([]*models.Payout, error)
	MarkCompleted(ctx context.Context, payoutID id.PayoutID, at time.Time) (*models.Payout, error)
	MarkFailed(ctx context.Context, payoutID id.PayoutID, reason string, at time.Time) (*models.Payout, error)
	YearTotals(ctx context.Context, taxYear int) (models.YearTotals, error)
}

// EscrowDebiter releases escrow funds for a completed payout, joining the
// caller's unit of work.
type EscrowDebiter interface {
	Debit(ctx context.Context, actor authz.Caller, contractID id.ContractID, amount id.Cents, reference string) (*escrowmodels.Record, error)
}

// AZHoursReader totals approved AZ-eligible hours for a tax year.
type AZHoursReader interface {
	ApprovedAZHours(ctx context.Context, taxYear int) (id.Hours, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// Service runs payroll batches. Every operation is admin-only.
type Service struct {
	store          Store
	escrow         EscrowDebiter
	hours          AZHoursReader
	tx             tx.Runner
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, escrow EscrowDebiter, hours AZHoursReader, runner tx.Runner, publisher AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:          store,
		escrow:         escrow,
		hours:          hours,
		tx:             runner,
		auditPublisher: publisher,
		logger:         slog.Default(),
		tracer:         otel.Tracer("contractpay/payroll"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PayoutList is a filtered listing with its exact aggregates.
type PayoutList struct {
	Payouts []*models.Payout
	models.Aggregates
}

func (s *Service) ListPayouts(ctx context.Context, caller authz.Caller, filter models.Filter) (out *PayoutList, err error) {
	ctx, span := s.tracer.Start(ctx, "payroll.ListPayouts")
	defer func() { endSpan(span, err) }()

	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	payouts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list payouts")
	}
	return &PayoutList{Payouts: payouts, Aggregates: models.Aggregate(payouts)}, nil
}

// ProcessBatch moves the pending subset of ids to processing in one
// conditional update. Ids that were not pending are reported as excluded;
// when none qualify the call fails and nothing is written.
func (s *Service) ProcessBatch(ctx context.Context, caller authz.Caller, ids []id.PayoutID) (result *models.BatchResult, err error) {
	ctx, span := s.tracer.Start(ctx, "payroll.ProcessBatch")
	defer func() { endSpan(span, err) }()

	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	ids = platformstrings.Dedupe(ids)
	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "payout_ids must not be empty")
	}
	span.SetAttributes(attribute.Int("payroll.requested", len(ids)))

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rows, err := s.store.MarkProcessing(ctx, ids, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return dErrors.New(dErrors.CodeConflict, "nothing to process: no requested payout is pending").
				WithDetails(idStrings(ids)...)
		}

		res := &models.BatchResult{Processed: rows, Excluded: excluded(ids, rows)}
		processedIDs := make([]string, 0, len(rows))
		for _, p := range rows {
			res.TotalAmount += p.NetAmount
			processedIDs = append(processedIDs, p.ID.String())
		}
		total := res.TotalAmount
		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityPayout,
			EntityID:    strings.Join(processedIDs, ","),
			EventType:   audit.EventPayoutBatchProcessing,
			ActorID:     caller.UserID,
			ActorRole:   string(authz.RoleAdmin),
			Description: "payout batch moved to processing",
			Amount:      &total,
			Payload: map[string]any{
				"payout_ids":   processedIDs,
				"count":        len(rows),
				"total_amount": total.String(),
				"excluded_ids": idStrings(res.Excluded),
			},
		}); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			s.metrics.IncEmptyBatch()
		}
		return nil, s.translate(ctx, err, "failed to process payout batch")
	}

	s.metrics.RecordBatch(result.ProcessedCount(), len(result.Excluded), result.TotalAmount)
	s.logger.InfoContext(ctx, "payout batch processing",
		"processed_count", result.ProcessedCount(),
		"excluded_count", len(result.Excluded),
		"total_amount", result.TotalAmount.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// CompletePayout moves a processing payout to completed and debits its net
// amount from the contract's escrow in the same unit of work.
func (s *Service) CompletePayout(ctx context.Context, caller authz.Caller, payoutID id.PayoutID) (payout *models.Payout, err error) {
	ctx, span := s.tracer.Start(ctx, "payroll.CompletePayout")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("payroll.payout_id", payoutID.String()))

	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.loadProcessing(ctx, payoutID)
		if err != nil {
			return err
		}
		completed, err := s.store.MarkCompleted(ctx, payoutID, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if _, err := s.escrow.Debit(ctx, caller, current.ContractID, current.NetAmount, "payout:"+payoutID.String()); err != nil {
			return err
		}
		amount := completed.NetAmount
		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityPayout,
			EntityID:    payoutID.String(),
			EventType:   audit.EventPayoutCompleted,
			ActorID:     caller.UserID,
			ActorRole:   string(authz.RoleAdmin),
			Description: "payout completed",
			Amount:      &amount,
			Payload:     payoutPayload(completed),
		}); err != nil {
			return err
		}
		payout = completed
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to complete payout")
	}
	s.metrics.IncTransition(string(models.StatusCompleted))
	return payout, nil
}

// FailPayout moves a processing payout to failed. No money moves.
func (s *Service) FailPayout(ctx context.Context, caller authz.Caller, payoutID id.PayoutID, reason string) (payout *models.Payout, err error) {
	ctx, span := s.tracer.Start(ctx, "payroll.FailPayout")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("payroll.payout_id", payoutID.String()))

	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(reason) > models.MaxFailureReason {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is too long")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadProcessing(ctx, payoutID); err != nil {
			return err
		}
		failed, err := s.store.MarkFailed(ctx, payoutID, reason, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		payload := payoutPayload(failed)
		payload["failure_reason"] = reason
		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityPayout,
			EntityID:    payoutID.String(),
			EventType:   audit.EventPayoutFailed,
			ActorID:     caller.UserID,
			ActorRole:   string(authz.RoleAdmin),
			Description: "payout failed",
			Payload:     payload,
		}); err != nil {
			return err
		}
		payout = failed
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to fail payout")
	}
	s.metrics.IncTransition(string(models.StatusFailed))
	return payout, nil
}

// YearSummary totals payouts for taxYear alongside approved AZ-eligible
// hours. The two aggregates are read concurrently.
func (s *Service) YearSummary(ctx context.Context, caller authz.Caller, taxYear int) (summary *models.YearSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "payroll.YearSummary")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("payroll.tax_year", taxYear))

	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := models.ValidateTaxYear(taxYear); err != nil {
		return nil, err
	}

	var (
		totals models.YearTotals
		hours  id.Hours
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.YearTotals(gctx, taxYear)
		return err
	})
	g.Go(func() error {
		var err error
		hours, err = s.hours.ApprovedAZHours(gctx, taxYear)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.translate(ctx, err, "failed to build year summary")
	}
	return &models.YearSummary{TaxYear: taxYear, YearTotals: totals, AZEligibleHours: hours}, nil
}

// loadProcessing locks the payout and checks it is awaiting an outcome.
func (s *Service) loadProcessing(ctx context.Context, payoutID id.PayoutID) (*models.Payout, error) {
	current, err := s.store.FindByIDForUpdate(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusProcessing {
		return nil, dErrors.New(dErrors.CodeConflict, "payout is not processing").
			WithDetails(models.ConflictDetail(payoutID, current.Status))
	}
	return current, nil
}

func (s *Service) translate(ctx context.Context, err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "payout not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "payout changed state concurrently")
	}
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func excluded(requested []id.PayoutID, processed []*models.Payout) []id.PayoutID {
	seen := make(map[id.PayoutID]bool, len(processed))
	for _, p := range processed {
		seen[p.ID] = true
	}
	out := make([]id.PayoutID, 0)
	for _, payoutID := range requested {
		if !seen[payoutID] {
			out = append(out, payoutID)
		}
	}
	return out
}

func idStrings(ids []id.PayoutID) []string {
	out := make([]string, 0, len(ids))
	for _, payoutID := range ids {
		out = append(out, payoutID.String())
	}
	return out
}

func payoutPayload(p *models.Payout) map[string]any {
	return map[string]any{
		"payout_id":   p.ID.String(),
		"talent_id":   p.TalentID.String(),
		"contract_id": p.ContractID.String(),
		"net_amount":  p.NetAmount.String(),
		"tax_year":    p.TaxYear,
		"status":      string(p.Status),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
