package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"contractpay/internal/authz"
	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/audit"
	"contractpay/pkg/requestcontext"
)

// CreateInput is a new log for one contract.
type CreateInput struct {
	ContractID id.ContractID
	Details    models.Details
}

// ListFilter narrows List.
type ListFilter struct {
	ContractID id.ContractID
	Status     models.Status
}

// Create records a draft log for the caller's talent profile.
func (s *Service) Create(ctx context.Context, caller authz.Caller, in CreateInput) (log *models.TimeLog, err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { endSpan(span, err) }()

	if !caller.HasTalentProfile() {
		return nil, s.reject(ctx, "create", dErrors.New(dErrors.CodeNotFound, "talent profile not found"))
	}
	details := in.Details
	details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, s.reject(ctx, "create", err)
	}
	contract, err := s.loadContract(ctx, in.ContractID)
	if err != nil {
		return nil, s.reject(ctx, "create", err)
	}
	if _, err := authz.Authorize(caller, authz.Subject{
		OwnerTalentID: contract.TalentID,
		ClientID:      contract.ClientID,
	}, authz.RoleTalent); err != nil {
		return nil, s.reject(ctx, "create", err)
	}
	azEligible, err := s.talentAZEligible(ctx, caller.TalentID)
	if err != nil {
		return nil, s.reject(ctx, "create", err)
	}

	now := requestcontext.Now(ctx)
	log = &models.TimeLog{
		ID:              id.NewTimeLogID(),
		TalentID:        caller.TalentID,
		ContractID:      contract.ID,
		Details:         details,
		AZEligibleHours: models.ComputeAZEligibleHours(details.LocationState, details.HoursWorked, azEligible),
		Status:          models.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	span.SetAttributes(attribute.String("time_log.id", log.ID.String()))

	if err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, log)
	}); err != nil {
		return nil, s.reject(ctx, "create", translate(err, "failed to create time log"))
	}

	s.emitRecordEdit(ctx, caller, audit.EventTimeLogCreated, log, "time log created", logPayload(log))
	return log, nil
}

// Get returns one log to its owner, the contract client or an admin.
func (s *Service) Get(ctx context.Context, caller authz.Caller, logID id.TimeLogID) (log *models.TimeLog, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { endSpan(span, err) }()

	log, err = s.store.FindByID(ctx, logID)
	if err != nil {
		return nil, s.reject(ctx, "get", translate(err, "failed to load time log"))
	}
	if _, err := s.authorizeOnLog(ctx, caller, log, anyRole...); err != nil {
		return nil, s.reject(ctx, "get", err)
	}
	return log, nil
}

// List returns logs visible to caller. With a contract filter the talent
// sees their own logs on it and the client or an admin sees all of them.
// Without one the caller sees their own logs; an admin without a talent
// profile sees everything.
func (s *Service) List(ctx context.Context, caller authz.Caller, filter ListFilter) (logs []*models.TimeLog, err error) {
	ctx, span := s.startSpan(ctx, "List")
	defer func() { endSpan(span, err) }()

	storeFilter := models.Filter{ContractID: filter.ContractID, Status: filter.Status}
	switch {
	case !filter.ContractID.IsNil():
		contract, err := s.loadContract(ctx, filter.ContractID)
		if err != nil {
			return nil, s.reject(ctx, "list", err)
		}
		role, err := authz.Authorize(caller, authz.Subject{
			OwnerTalentID: contract.TalentID,
			ClientID:      contract.ClientID,
		}, anyRole...)
		if err != nil {
			return nil, s.reject(ctx, "list", err)
		}
		if role == authz.RoleTalent {
			storeFilter.TalentID = caller.TalentID
		}
	case caller.HasTalentProfile():
		storeFilter.TalentID = caller.TalentID
	case caller.Admin:
	default:
		return nil, s.reject(ctx, "list", dErrors.New(dErrors.CodeNotFound, "talent profile not found"))
	}

	logs, err = s.store.List(ctx, storeFilter)
	if err != nil {
		return nil, s.reject(ctx, "list", translate(err, "failed to list time logs"))
	}
	return logs, nil
}

// Update edits a draft or rejected log. A rejected log returns to draft so
// it can be resubmitted.
func (s *Service) Update(ctx context.Context, caller authz.Caller, logID id.TimeLogID, patch models.Patch) (updated *models.TimeLog, err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("time_log.id", logID.String()))

	if patch.IsEmpty() {
		return nil, s.reject(ctx, "update", dErrors.New(dErrors.CodeValidation, "no fields to update"))
	}

	var previous models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		log, err := s.store.FindByIDForUpdate(ctx, logID)
		if err != nil {
			return err
		}
		if _, err := s.authorizeOnLog(ctx, caller, log, authz.RoleTalent); err != nil {
			return err
		}
		if !log.Status.Editable() {
			return dErrors.New(dErrors.CodeConflict, "time log can only be edited in draft or rejected status").
				WithDetails(models.ConflictDetail(log.ID, log.Status))
		}

		details := patch.ApplyTo(log.Details)
		details.Normalize()
		if err := details.Validate(); err != nil {
			return err
		}
		azEligible, err := s.talentAZEligible(ctx, log.TalentID)
		if err != nil {
			return err
		}

		previous = log.Status
		next := *log
		next.Details = details
		next.AZEligibleHours = models.ComputeAZEligibleHours(details.LocationState, details.HoursWorked, azEligible)
		next.UpdatedAt = requestcontext.Now(ctx)
		if previous == models.StatusRejected {
			next.Status = models.StatusDraft
		}
		if err := s.store.Update(ctx, &next, previous); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, "update", translate(err, "failed to update time log"))
	}

	if previous != updated.Status {
		s.metrics.IncTransition(string(previous), string(updated.Status))
	}
	payload := logPayload(updated)
	payload["previous_status"] = string(previous)
	s.emitRecordEdit(ctx, caller, audit.EventTimeLogUpdated, updated, "time log updated", payload)
	return updated, nil
}

// Delete removes a draft log.
func (s *Service) Delete(ctx context.Context, caller authz.Caller, logID id.TimeLogID) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("time_log.id", logID.String()))

	var deleted *models.TimeLog
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		log, err := s.store.FindByIDForUpdate(ctx, logID)
		if err != nil {
			return err
		}
		if _, err := s.authorizeOnLog(ctx, caller, log, authz.RoleTalent); err != nil {
			return err
		}
		if !log.Status.Deletable() {
			return dErrors.New(dErrors.CodeConflict, "time log can only be deleted in draft status").
				WithDetails(models.ConflictDetail(log.ID, log.Status))
		}
		if err := s.store.Delete(ctx, logID, models.StatusDraft); err != nil {
			return err
		}
		deleted = log
		return nil
	})
	if err != nil {
		return s.reject(ctx, "delete", translate(err, "failed to delete time log"))
	}

	s.emitRecordEdit(ctx, caller, audit.EventTimeLogDeleted, deleted, "time log deleted", logPayload(deleted))
	return nil
}
