package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

// DateLayout is the wire format of log dates.
const DateLayout = time.DateOnly

// ArizonaStateCode is the location_state that qualifies hours for AZ reporting.
const ArizonaStateCode = "AZ"

// Details are the talent-supplied attributes of a log.
type Details struct {
	MilestoneID   *id.MilestoneID
	LogDate       time.Time
	StartTime     string
	EndTime       string
	HoursWorked   id.Hours
	TaskCategory  string
	Description   string
	LocationType  LocationType
	LocationState string
	LocationCity  string
	Latitude      *float64
	Longitude     *float64
	Billable      bool
}

// TimeLog is one day's work by a talent against a contract.
//
// Invariants:
//   - 0 < HoursWorked <= 24h
//   - 0 <= AZEligibleHours <= HoursWorked, and non-zero only for Arizona
//     work by an AZ-eligible talent
//   - ApprovedAt and ApprovedBy are set only in StatusApproved
type TimeLog struct {
	ID         id.TimeLogID
	TalentID   id.TalentID
	ContractID id.ContractID
	Details

	AZEligibleHours id.Hours
	Status          Status
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *id.UserID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Normalize trims free text, upper-cases the state code and applies defaults.
func (d *Details) Normalize() {
	d.StartTime = strings.TrimSpace(d.StartTime)
	d.EndTime = strings.TrimSpace(d.EndTime)
	d.TaskCategory = strings.TrimSpace(d.TaskCategory)
	d.Description = strings.TrimSpace(d.Description)
	d.LocationState = strings.ToUpper(strings.TrimSpace(d.LocationState))
	d.LocationCity = strings.TrimSpace(d.LocationCity)
	if d.LocationType == "" {
		d.LocationType = LocationRemote
	}
	if !d.LogDate.IsZero() {
		y, m, day := d.LogDate.Date()
		d.LogDate = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
}

// Validate reports every problem with d at once.
func (d Details) Validate() error {
	var problems []string
	if d.LogDate.IsZero() {
		problems = append(problems, "log_date: is required")
	}
	if d.HoursWorked <= 0 || d.HoursWorked > id.HoursPerDay {
		problems = append(problems, "hours_worked: must be greater than 0 and at most 24")
	}
	if d.TaskCategory == "" {
		problems = append(problems, "task_category: is required")
	}
	if !d.LocationType.IsValid() {
		problems = append(problems, "location_type: must be one of remote, on_site")
	}
	if d.LocationState != "" && !isStateCode(d.LocationState) {
		problems = append(problems, "location_state: must be a two-letter state code")
	}
	if d.Latitude != nil && (*d.Latitude < -90 || *d.Latitude > 90) {
		problems = append(problems, "latitude: must be between -90 and 90")
	}
	if d.Longitude != nil && (*d.Longitude < -180 || *d.Longitude > 180) {
		problems = append(problems, "longitude: must be between -180 and 180")
	}
	problems = append(problems, validateClock(d.StartTime, d.EndTime)...)

	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid time log").WithDetails(problems...)
	}
	return nil
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func validateClock(start, end string) []string {
	if start == "" && end == "" {
		return nil
	}
	if start == "" || end == "" {
		return []string{"start_time: start_time and end_time must be given together"}
	}
	var problems []string
	s, errS := time.Parse("15:04", start)
	if errS != nil {
		problems = append(problems, "start_time: must be HH:MM")
	}
	e, errE := time.Parse("15:04", end)
	if errE != nil {
		problems = append(problems, "end_time: must be HH:MM")
	}
	if errS == nil && errE == nil && !e.After(s) {
		problems = append(problems, "end_time: must be after start_time")
	}
	return problems
}

// ComputeAZEligibleHours derives the Arizona-reportable share of hours.
func ComputeAZEligibleHours(state string, hours id.Hours, talentAZEligible bool) id.Hours {
	if !talentAZEligible || strings.ToUpper(strings.TrimSpace(state)) != ArizonaStateCode || hours <= 0 {
		return 0
	}
	return hours
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	MilestoneID   *id.MilestoneID
	LogDate       *time.Time
	StartTime     *string
	EndTime       *string
	HoursWorked   *id.Hours
	TaskCategory  *string
	Description   *string
	LocationType  *LocationType
	LocationState *string
	LocationCity  *string
	Latitude      *float64
	Longitude     *float64
	Billable      *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// ApplyTo returns d with the patch applied.
func (p Patch) ApplyTo(d Details) Details {
	if p.MilestoneID != nil {
		d.MilestoneID = p.MilestoneID
	}
	if p.LogDate != nil {
		d.LogDate = *p.LogDate
	}
	if p.StartTime != nil {
		d.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		d.EndTime = *p.EndTime
	}
	if p.HoursWorked != nil {
		d.HoursWorked = *p.HoursWorked
	}
	if p.TaskCategory != nil {
		d.TaskCategory = *p.TaskCategory
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.LocationType != nil {
		d.LocationType = *p.LocationType
	}
	if p.LocationState != nil {
		d.LocationState = *p.LocationState
	}
	if p.LocationCity != nil {
		d.LocationCity = *p.LocationCity
	}
	if p.Latitude != nil {
		d.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		d.Longitude = p.Longitude
	}
	if p.Billable != nil {
		d.Billable = *p.Billable
	}
	return d
}

// Audit is one insert-only row of a log's review trail.
type Audit struct {
	ID        uuid.UUID
	TimeLogID id.TimeLogID
	// ReviewerID is nil for submissions.
	ReviewerID   *id.UserID
	Decision     Decision
	Notes        string
	IPAddress    string
	UserAgent    string
	ClientDevice string
	RequestID    string
	CreatedAt    time.Time
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	TalentID   id.TalentID
	ContractID id.ContractID
	Status     Status
	// IDs restricts the result to the given logs.
	IDs []id.TimeLogID
}

// YearRange returns the half-open UTC date range covering taxYear.
func YearRange(taxYear int) (from, to time.Time) {
	from = time.Date(taxYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// ConflictDetail formats an offending log for error details.
func ConflictDetail(logID id.TimeLogID, status Status) string {
	return fmt.Sprintf("%s: status %s", logID, status)
}
