package handler

import (
	"strings"
	"time"

	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	platformstrings "contractpay/pkg/platform/strings"
)

// CreateRequest is the body of POST /time-logs.
type CreateRequest struct {
	ContractID    string   `json:"contract_id" validate:"required"`
	MilestoneID   string   `json:"milestone_id"`
	LogDate       string   `json:"log_date" validate:"required"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	HoursWorked   id.Hours `json:"hours_worked" validate:"required"`
	TaskCategory  string   `json:"task_category" validate:"required,max=64"`
	Description   string   `json:"description" validate:"max=4000"`
	LocationType  string   `json:"location_type" validate:"omitempty,oneof=remote on_site"`
	LocationState string   `json:"location_state"`
	LocationCity  string   `json:"location_city" validate:"max=128"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Billable      *bool    `json:"billable"`

	// Parsed values (populated by Validate)
	parsedContractID id.ContractID
	parsedDetails    models.Details
}

// Validate parses identifiers and dates. Field rules live on models.Details.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	contractID, err := id.ParseContractID(r.ContractID)
	if err != nil {
		return err
	}
	milestoneID, err := parseOptionalMilestone(r.MilestoneID)
	if err != nil {
		return err
	}
	logDate, err := parseLogDate(r.LogDate)
	if err != nil {
		return err
	}

	billable := true
	if r.Billable != nil {
		billable = *r.Billable
	}
	r.parsedContractID = contractID
	r.parsedDetails = models.Details{
		MilestoneID:   milestoneID,
		LogDate:       logDate,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		HoursWorked:   r.HoursWorked,
		TaskCategory:  r.TaskCategory,
		Description:   r.Description,
		LocationType:  models.LocationType(r.LocationType),
		LocationState: r.LocationState,
		LocationCity:  r.LocationCity,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Billable:      billable,
	}
	r.parsedDetails.Normalize()
	return r.parsedDetails.Validate()
}

func (r *CreateRequest) ParsedContractID() id.ContractID { return r.parsedContractID }
func (r *CreateRequest) ParsedDetails() models.Details   { return r.parsedDetails }

// UpdateRequest is the body of PATCH /time-logs/{id}. Absent fields keep
// their stored value.
type UpdateRequest struct {
	MilestoneID   *string   `json:"milestone_id"`
	LogDate       *string   `json:"log_date"`
	StartTime     *string   `json:"start_time"`
	EndTime       *string   `json:"end_time"`
	HoursWorked   *id.Hours `json:"hours_worked"`
	TaskCategory  *string   `json:"task_category" validate:"omitempty,max=64"`
	Description   *string   `json:"description" validate:"omitempty,max=4000"`
	LocationType  *string   `json:"location_type" validate:"omitempty,oneof=remote on_site"`
	LocationState *string   `json:"location_state"`
	LocationCity  *string   `json:"location_city" validate:"omitempty,max=128"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	Billable      *bool     `json:"billable"`

	parsedPatch models.Patch
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	p := models.Patch{
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		HoursWorked:   r.HoursWorked,
		TaskCategory:  r.TaskCategory,
		Description:   r.Description,
		LocationState: r.LocationState,
		LocationCity:  r.LocationCity,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Billable:      r.Billable,
	}
	if r.MilestoneID != nil {
		m, err := parseOptionalMilestone(*r.MilestoneID)
		if err != nil {
			return err
		}
		p.MilestoneID = m
	}
	if r.LogDate != nil {
		d, err := parseLogDate(*r.LogDate)
		if err != nil {
			return err
		}
		p.LogDate = &d
	}
	if r.LocationType != nil {
		lt := models.LocationType(*r.LocationType)
		p.LocationType = &lt
	}
	if p.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	r.parsedPatch = p
	return nil
}

func (r *UpdateRequest) ParsedPatch() models.Patch { return r.parsedPatch }

// SubmitRequest is the body of POST /time-logs/submit.
type SubmitRequest struct {
	TimeLogIDs []string `json:"time_log_ids" validate:"required,min=1,max=500"`

	parsedIDs []id.TimeLogID
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	raw := platformstrings.DedupeAndTrim(r.TimeLogIDs)
	if len(raw) == 0 {
		return dErrors.New(dErrors.CodeValidation, "time_log_ids must not be empty")
	}
	ids := make([]id.TimeLogID, 0, len(raw))
	for _, s := range raw {
		logID, err := id.ParseTimeLogID(s)
		if err != nil {
			return err
		}
		ids = append(ids, logID)
	}
	r.parsedIDs = ids
	return nil
}

func (r *SubmitRequest) ParsedIDs() []id.TimeLogID { return r.parsedIDs }

// DecisionRequest is the body of POST /time-logs/{id}/decision.
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`

	parsedDecision models.Decision
}

func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	d, err := models.ParseReviewDecision(r.Decision)
	if err != nil {
		return err
	}
	r.parsedDecision = d
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

func (r *DecisionRequest) ParsedDecision() models.Decision { return r.parsedDecision }

func parseOptionalMilestone(s string) (*id.MilestoneID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m, err := id.ParseMilestoneID(s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func parseLogDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "log_date must be YYYY-MM-DD")
	}
	return d, nil
}
