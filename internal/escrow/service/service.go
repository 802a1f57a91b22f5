package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contractpay/internal/authz"
	"contractpay/internal/escrow/metrics"
	"contractpay/internal/escrow/models"
	"contractpay/internal/identity"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/platform/tx"
	"contractpay/pkg/requestcontext"
)

// Store persists escrow records. Fund and Debit are single atomic statements.
type Store interface {
	Fund(ctx context.Context, contractID id.ContractID, amount id.Cents, at time.Time) (*models.Record, error)
	Debit(ctx context.Context, contractID id.ContractID, amount id.Cents, at time.Time) (*models.Record, error)
	FindByContract(ctx context.Context, contractID id.ContractID) (*models.Record, error)
	ListByContracts(ctx context.Context, contractIDs []id.ContractID) ([]*models.Record, error)
}

type Directory interface {
	Contract(ctx context.Context, contractID id.ContractID) (*identity.Contract, error)
	ContractsForParty(ctx context.Context, userID id.UserID, talentID id.TalentID) ([]identity.Contract, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// Service is the escrow ledger.
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

func New(store Store, directory Directory, runner tx.Runner, publisher AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:          store,
		directory:      directory,
		tx:             runner,
		auditPublisher: publisher,
		logger:         slog.Default(),
		tracer:         otel.Tracer("contractpay/escrow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fund deposits amount into the contract's escrow. Only the contract's client
// may fund; the increment and its compliance event commit together.
func (s *Service) Fund(ctx context.Context, caller authz.Caller, contractID id.ContractID, amount id.Cents) (rec *models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, "escrow.Fund")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("escrow.contract_id", contractID.String()),
		attribute.Int64("escrow.amount_cents", int64(amount)),
	)

	if err := models.ValidateAmount(amount); err != nil {
		return nil, err
	}
	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	role, err := authz.Authorize(caller, authz.Subject{
		OwnerTalentID: contract.TalentID,
		ClientID:      contract.ClientID,
	}, authz.RoleClient)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		funded, err := s.store.Fund(ctx, contractID, amount, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := funded.CheckInvariant(); err != nil {
			return err
		}
		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityEscrow,
			EntityID:    contractID.String(),
			EventType:   audit.EventEscrowFunded,
			ActorID:     caller.UserID,
			ActorRole:   string(role),
			Description: "escrow funded",
			Amount:      &amount,
			Payload:     recordPayload(funded, amount),
		}); err != nil {
			return err
		}
		rec = funded
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to fund escrow")
	}

	s.metrics.AddFunded(amount)
	s.logger.InfoContext(ctx, "escrow funded",
		"contract_id", contractID.String(),
		"amount", amount.String(),
		"balance", rec.Balance.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return rec, nil
}

// List returns escrow records for contracts where the caller is client or
// talent. A contract the caller is not party to reads as no records.
func (s *Service) List(ctx context.Context, caller authz.Caller, contractID id.ContractID) (recs []*models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, "escrow.List")
	defer func() { endSpan(span, err) }()

	contracts, err := s.directory.ContractsForParty(ctx, caller.UserID, caller.TalentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contracts")
	}
	ids := make([]id.ContractID, 0, len(contracts))
	for _, c := range contracts {
		if contractID.IsNil() || c.ID == contractID {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return []*models.Record{}, nil
	}
	recs, err = s.store.ListByContracts(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list escrow records")
	}
	return recs, nil
}

// Debit releases amount from the contract's escrow for a payout. It joins
// the caller's unit of work; a short balance fails with a state conflict and
// leaves the record untouched.
func (s *Service) Debit(ctx context.Context, actor authz.Caller, contractID id.ContractID, amount id.Cents, reference string) (rec *models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, "escrow.Debit")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("escrow.contract_id", contractID.String()),
		attribute.Int64("escrow.amount_cents", int64(amount)),
	)

	if err := models.ValidateAmount(amount); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		debited, err := s.store.Debit(ctx, contractID, amount, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := debited.CheckInvariant(); err != nil {
			return err
		}
		payload := recordPayload(debited, amount)
		payload["reference"] = reference
		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityEscrow,
			EntityID:    contractID.String(),
			EventType:   audit.EventEscrowDebited,
			ActorID:     actor.UserID,
			ActorRole:   string(authz.RoleAdmin),
			Description: "escrow debited for payout",
			Amount:      &amount,
			Payload:     payload,
		}); err != nil {
			return err
		}
		rec = debited
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			s.metrics.IncInsufficientFunds()
		}
		return nil, s.translate(ctx, err, "failed to debit escrow")
	}
	s.metrics.AddDebited(amount)
	return rec, nil
}

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

func (s *Service) translate(ctx context.Context, err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "escrow record not found")
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		return dErrors.New(dErrors.CodeConflict, "escrow balance does not cover the amount")
	case errors.Is(err, sentinel.ErrOutOfRange):
		return dErrors.New(dErrors.CodeValidation, "deposit would exceed the maximum escrow balance")
	}
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func recordPayload(rec *models.Record, amount id.Cents) map[string]any {
	return map[string]any{
		"contract_id": rec.ContractID.String(),
		"amount":      amount.String(),
		"balance":     rec.Balance.String(),
		"deposited":   rec.Deposited.String(),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
