package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contractpay/internal/authz"
	"contractpay/internal/identity"
	"contractpay/internal/timelog/metrics"
	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/middleware/device"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/platform/tx"
	"contractpay/pkg/requestcontext"
)

// Store persists time logs and their audit trail. Conditional writes return
// sentinel.ErrInvalidState when the stored status no longer matches.
type Store interface {
	Create(ctx context.Context, log *models.TimeLog) error
	FindByID(ctx context.Context, logID id.TimeLogID) (*models.TimeLog, error)
	FindByIDForUpdate(ctx context.Context, logID id.TimeLogID) (*models.TimeLog, error)
	List(ctx context.Context, filter models.Filter) ([]*models.TimeLog, error)
	Update(ctx context.Context, log *models.TimeLog, expected models.Status) error
	Delete(ctx context.Context, logID id.TimeLogID, expected models.Status) error
	MarkSubmitted(ctx context.Context, talentID id.TalentID, ids []id.TimeLogID, at time.Time) ([]*models.TimeLog, error)
	ApplyDecision(ctx context.Context, logID id.TimeLogID, status models.Status, approvedAt *time.Time, approvedBy *id.UserID, at time.Time) (*models.TimeLog, error)
	AppendAudit(ctx context.Context, audit models.Audit) error
	ListAudits(ctx context.Context, logID id.TimeLogID) ([]models.Audit, error)
	SumApprovedAZHours(ctx context.Context, from, to time.Time) (id.Hours, error)
}

// Directory is the subset of identity.Directory the workflow reads.
type Directory interface {
	Contract(ctx context.Context, contractID id.ContractID) (*identity.Contract, error)
	ProfileByTalentID(ctx context.Context, talentID id.TalentID) (*identity.Profile, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
	EmitWithPolicy(ctx context.Context, policy audit.Policy, event audit.ComplianceEvent) error
}

// Service runs the time-log state machine.
type Service struct {
	store          Store
	directory      Directory
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

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. The publisher is required: submissions and
// decisions fail closed when their compliance event cannot be written.
func New(store Store, directory Directory, runner tx.Runner, publisher AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:          store,
		directory:      directory,
		tx:             runner,
		auditPublisher: publisher,
		logger:         slog.Default(),
		tracer:         otel.Tracer("contractpay/timelog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApprovedAZHours totals AZ-eligible hours of approved logs dated in taxYear.
func (s *Service) ApprovedAZHours(ctx context.Context, taxYear int) (id.Hours, error) {
	from, to := models.YearRange(taxYear)
	total, err := s.store.SumApprovedAZHours(ctx, from, to)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to total az-eligible hours")
	}
	return total, nil
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "timelog."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// loadContract resolves the contract a log belongs to.
func (s *Service) loadContract(ctx context.Context, contractID id.ContractID) (*identity.Contract, error) {
	contract, err := s.directory.Contract(ctx, contractID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	return contract, nil
}

func (s *Service) talentAZEligible(ctx context.Context, talentID id.TalentID) (bool, error) {
	profile, err := s.directory.ProfileByTalentID(ctx, talentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "talent profile not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load talent profile")
	}
	return profile.AZEligible, nil
}

// authorizeOnLog resolves the caller's role on log and checks it against
// required.
func (s *Service) authorizeOnLog(ctx context.Context, caller authz.Caller, log *models.TimeLog, required ...authz.Role) (authz.Role, error) {
	contract, err := s.loadContract(ctx, log.ContractID)
	if err != nil {
		return "", err
	}
	return authz.Authorize(caller, authz.Subject{
		OwnerTalentID: log.TalentID,
		ClientID:      contract.ClientID,
	}, required...)
}

var anyRole = []authz.Role{authz.RoleTalent, authz.RoleClient, authz.RoleAdmin}

// translate maps store errors onto coded errors. Coded errors pass through.
func translate(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "time log not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "time log changed state concurrently")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) reject(ctx context.Context, operation string, err error) error {
	code := dErrors.CodeOf(err)
	s.metrics.IncRejection(operation, string(code))
	if code == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "time log operation failed",
			"operation", operation,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return err
}

func newAudit(ctx context.Context, logID id.TimeLogID, reviewer *id.UserID, decision models.Decision, notes string, at time.Time) models.Audit {
	ua := requestcontext.UserAgent(ctx)
	return models.Audit{
		ID:           uuid.New(),
		TimeLogID:    logID,
		ReviewerID:   reviewer,
		Decision:     decision,
		Notes:        notes,
		IPAddress:    requestcontext.ClientIP(ctx),
		UserAgent:    ua,
		ClientDevice: device.Label(ua),
		RequestID:    requestcontext.RequestID(ctx),
		CreatedAt:    at,
	}
}

// emitRecordEdit writes a record-edit event after the edit has committed.
// Failures are logged and counted by the publisher, never returned.
func (s *Service) emitRecordEdit(ctx context.Context, caller authz.Caller, eventType audit.EventType, log *models.TimeLog, description string, payload map[string]any) {
	_ = s.auditPublisher.EmitWithPolicy(ctx, audit.LogAndContinue, audit.ComplianceEvent{
		EntityType:  audit.EntityTimeLog,
		EntityID:    log.ID.String(),
		EventType:   eventType,
		ActorID:     caller.UserID,
		ActorRole:   string(authz.RoleTalent),
		Description: description,
		Payload:     payload,
	})
}

func logPayload(log *models.TimeLog) map[string]any {
	return map[string]any{
		"contract_id":       log.ContractID.String(),
		"talent_id":         log.TalentID.String(),
		"log_date":          log.LogDate.Format(models.DateLayout),
		"status":            string(log.Status),
		"hours_worked":      log.HoursWorked.String(),
		"az_eligible_hours": log.AZEligibleHours.String(),
		"location_state":    log.LocationState,
		"billable":          log.Billable,
	}
}
