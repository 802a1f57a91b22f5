package handler

import (
	"time"

	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
)

// TimeLogResponse is the wire form of a time log.
type TimeLogResponse struct {
	ID              id.TimeLogID    `json:"id"`
	TalentID        id.TalentID     `json:"talent_id"`
	ContractID      id.ContractID   `json:"contract_id"`
	MilestoneID     *id.MilestoneID `json:"milestone_id,omitempty"`
	LogDate         string          `json:"log_date"`
	StartTime       string          `json:"start_time,omitempty"`
	EndTime         string          `json:"end_time,omitempty"`
	HoursWorked     id.Hours        `json:"hours_worked"`
	TaskCategory    string          `json:"task_category"`
	Description     string          `json:"description"`
	LocationType    string          `json:"location_type"`
	LocationState   string          `json:"location_state,omitempty"`
	LocationCity    string          `json:"location_city,omitempty"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
	AZEligibleHours id.Hours        `json:"az_eligible_hours"`
	Billable        bool            `json:"billable"`
	Status          string          `json:"status"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy      *id.UserID      `json:"approved_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ListResponse struct {
	TimeLogs []TimeLogResponse `json:"time_logs"`
	Count    int               `json:"count"`
}

type SubmitResponse struct {
	Submitted []TimeLogResponse `json:"submitted"`
	Count     int               `json:"count"`
}

// AuditResponse is one row of a log's review trail.
type AuditResponse struct {
	ID           string     `json:"id"`
	Decision     string     `json:"decision"`
	ReviewerID   *id.UserID `json:"reviewer_id,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	ClientDevice string     `json:"client_device,omitempty"`
	RequestID    string     `json:"request_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type HistoryResponse struct {
	TimeLogID id.TimeLogID    `json:"time_log_id"`
	Entries   []AuditResponse `json:"entries"`
}

func toTimeLogResponse(l *models.TimeLog) TimeLogResponse {
	return TimeLogResponse{
		ID:              l.ID,
		TalentID:        l.TalentID,
		ContractID:      l.ContractID,
		MilestoneID:     l.MilestoneID,
		LogDate:         l.LogDate.Format(models.DateLayout),
		StartTime:       l.StartTime,
		EndTime:         l.EndTime,
		HoursWorked:     l.HoursWorked,
		TaskCategory:    l.TaskCategory,
		Description:     l.Description,
		LocationType:    string(l.LocationType),
		LocationState:   l.LocationState,
		LocationCity:    l.LocationCity,
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		AZEligibleHours: l.AZEligibleHours,
		Billable:        l.Billable,
		Status:          string(l.Status),
		SubmittedAt:     l.SubmittedAt,
		ApprovedAt:      l.ApprovedAt,
		ApprovedBy:      l.ApprovedBy,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toTimeLogResponses(logs []*models.TimeLog) []TimeLogResponse {
	out := make([]TimeLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toTimeLogResponse(l))
	}
	return out
}

func toAuditResponses(trail []models.Audit) []AuditResponse {
	out := make([]AuditResponse, 0, len(trail))
	for _, a := range trail {
		out = append(out, AuditResponse{
			ID:           a.ID.String(),
			Decision:     string(a.Decision),
			ReviewerID:   a.ReviewerID,
			Notes:        a.Notes,
			IPAddress:    a.IPAddress,
			ClientDevice: a.ClientDevice,
			RequestID:    a.RequestID,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}
