package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"contractpay/internal/authz"
	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/audit"
	platformstrings "contractpay/pkg/platform/strings"
	"contractpay/pkg/requestcontext"
)

// SubmitBatch moves the caller's draft or rejected logs to submitted, all or
// nothing. Each log gets a submitted audit row and the batch gets one
// compliance event, in the same unit of work.
func (s *Service) SubmitBatch(ctx context.Context, caller authz.Caller, ids []id.TimeLogID) (submitted []*models.TimeLog, err error) {
	ctx, span := s.startSpan(ctx, "SubmitBatch")
	defer func() { endSpan(span, err) }()

	ids = platformstrings.Dedupe(ids)
	if len(ids) == 0 {
		return nil, s.reject(ctx, "submit", dErrors.New(dErrors.CodeValidation, "time_log_ids must not be empty"))
	}
	if !caller.HasTalentProfile() {
		return nil, s.reject(ctx, "submit", dErrors.New(dErrors.CodeNotFound, "talent profile not found"))
	}
	span.SetAttributes(attribute.Int("time_log.batch_size", len(ids)))

	var prior map[id.TimeLogID]models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		prior, err = s.checkSubmittable(ctx, caller, ids)
		if err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		rows, err := s.store.MarkSubmitted(ctx, caller.TalentID, ids, now)
		if err != nil {
			return err
		}
		if len(rows) != len(ids) {
			return dErrors.New(dErrors.CodeConflict, "time logs changed state during submission").
				WithDetails(missingIDs(ids, rows)...)
		}

		var hours, azHours id.Hours
		logIDs := make([]string, 0, len(rows))
		for _, log := range rows {
			if err := s.store.AppendAudit(ctx, newAudit(ctx, log.ID, nil, models.DecisionSubmitted, "", now)); err != nil {
				return err
			}
			hours += log.HoursWorked
			azHours += log.AZEligibleHours
			logIDs = append(logIDs, log.ID.String())
		}

		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityTimeLog,
			EntityID:    strings.Join(logIDs, ","),
			EventType:   audit.EventTimeLogsSubmitted,
			ActorID:     caller.UserID,
			ActorRole:   string(authz.RoleTalent),
			Description: "time logs submitted for review",
			Payload: map[string]any{
				"time_log_ids":      logIDs,
				"count":             len(rows),
				"talent_id":         caller.TalentID.String(),
				"hours_worked":      hours.String(),
				"az_eligible_hours": azHours.String(),
			},
		}); err != nil {
			return err
		}
		submitted = rows
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, "submit", translate(err, "failed to submit time logs"))
	}

	s.metrics.ObserveSubmitBatch(len(submitted))
	for _, log := range submitted {
		s.metrics.IncTransition(string(prior[log.ID]), string(models.StatusSubmitted))
	}
	return submitted, nil
}

// checkSubmittable verifies every id is owned by the caller and in a state
// that can be submitted, and returns their current statuses. Unknown ids
// are reported as not owned so the response does not reveal other talents'
// logs.
func (s *Service) checkSubmittable(ctx context.Context, caller authz.Caller, ids []id.TimeLogID) (map[id.TimeLogID]models.Status, error) {
	existing, err := s.store.List(ctx, models.Filter{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[id.TimeLogID]*models.TimeLog, len(existing))
	for _, log := range existing {
		byID[log.ID] = log
	}

	var forbidden, conflicting []string
	statuses := make(map[id.TimeLogID]models.Status, len(ids))
	for _, logID := range ids {
		log, ok := byID[logID]
		if !ok || log.TalentID != caller.TalentID {
			forbidden = append(forbidden, logID.String())
			continue
		}
		statuses[logID] = log.Status
		if !log.Status.CanTransitionTo(models.StatusSubmitted) {
			conflicting = append(conflicting, models.ConflictDetail(log.ID, log.Status))
		}
	}
	if len(forbidden) > 0 {
		return nil, dErrors.New(dErrors.CodeForbidden, "time logs are not owned by the caller").WithDetails(forbidden...)
	}
	if len(conflicting) > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "time logs must be in draft or rejected status").WithDetails(conflicting...)
	}
	return statuses, nil
}

func missingIDs(want []id.TimeLogID, got []*models.TimeLog) []string {
	seen := make(map[id.TimeLogID]bool, len(got))
	for _, log := range got {
		seen[log.ID] = true
	}
	var out []string
	for _, logID := range want {
		if !seen[logID] {
			out = append(out, logID.String())
		}
	}
	return out
}

// Decide records a reviewer's decision on a submitted log. Only the contract
// client or an admin may decide; the owning talent resolves as owner first
// and is refused even when they also hold the admin role.
func (s *Service) Decide(ctx context.Context, caller authz.Caller, logID id.TimeLogID, decision models.Decision, notes string) (decided *models.TimeLog, err error) {
	ctx, span := s.startSpan(ctx, "Decide")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("time_log.id", logID.String()),
		attribute.String("time_log.decision", string(decision)),
	)

	decision, err = models.ParseReviewDecision(string(decision))
	if err != nil {
		return nil, s.reject(ctx, "decide", err)
	}
	notes = strings.TrimSpace(notes)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		log, err := s.store.FindByIDForUpdate(ctx, logID)
		if err != nil {
			return err
		}
		role, err := s.authorizeOnLog(ctx, caller, log, authz.RoleClient, authz.RoleAdmin)
		if err != nil {
			return err
		}
		if log.Status != models.StatusSubmitted {
			return dErrors.New(dErrors.CodeConflict, "time log is not awaiting review").
				WithDetails(models.ConflictDetail(log.ID, log.Status))
		}

		now := requestcontext.Now(ctx)
		var (
			approvedAt *time.Time
			approvedBy *id.UserID
		)
		if decision == models.DecisionApproved {
			reviewer := caller.UserID
			approvedAt, approvedBy = &now, &reviewer
		}
		next := decision.ResultingStatus()
		updated, err := s.store.ApplyDecision(ctx, logID, next, approvedAt, approvedBy, now)
		if err != nil {
			return err
		}

		reviewer := caller.UserID
		if err := s.store.AppendAudit(ctx, newAudit(ctx, logID, &reviewer, decision, notes, now)); err != nil {
			return err
		}

		payload := logPayload(updated)
		payload["decision"] = string(decision)
		payload["previous_status"] = string(log.Status)
		payload["notes"] = notes
		if err := s.auditPublisher.Emit(ctx, audit.ComplianceEvent{
			EntityType:  audit.EntityTimeLog,
			EntityID:    logID.String(),
			EventType:   audit.EventTimeLogDecided,
			ActorID:     caller.UserID,
			ActorRole:   string(role),
			Description: "time log " + string(decision),
			Payload:     payload,
		}); err != nil {
			return err
		}
		decided = updated
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, "decide", translate(err, "failed to record decision"))
	}

	s.metrics.IncTransition(string(models.StatusSubmitted), string(decided.Status))
	s.logger.InfoContext(ctx, "time log decided",
		"time_log_id", logID.String(),
		"decision", string(decision),
		"request_id", requestcontext.RequestID(ctx),
	)
	return decided, nil
}

// History returns the audit trail of one log, oldest first.
func (s *Service) History(ctx context.Context, caller authz.Caller, logID id.TimeLogID) (trail []models.Audit, err error) {
	ctx, span := s.startSpan(ctx, "History")
	defer func() { endSpan(span, err) }()

	log, err := s.store.FindByID(ctx, logID)
	if err != nil {
		return nil, s.reject(ctx, "history", translate(err, "failed to load time log"))
	}
	if _, err := s.authorizeOnLog(ctx, caller, log, anyRole...); err != nil {
		return nil, s.reject(ctx, "history", err)
	}
	trail, err = s.store.ListAudits(ctx, logID)
	if err != nil {
		return nil, s.reject(ctx, "history", translate(err, "failed to load audit trail"))
	}
	return trail, nil
}
