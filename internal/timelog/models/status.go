package models

import (
	"strings"

	dErrors "contractpay/pkg/domain-errors"
)

// Status is the review state of a time log.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// transitions lists every permitted status change. Approved is terminal.
// A rejected log goes back to draft when edited, or straight to submitted
// when resubmitted unchanged.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusRejected:  {StatusDraft, StatusSubmitted},
}

// ParseStatus validates a status filter value.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of draft, submitted, approved, rejected")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether the log's details may change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

// Deletable reports whether the log may be removed.
func (s Status) Deletable() bool {
	return s == StatusDraft
}

// Decision is the value recorded on an audit row.
type Decision string

const (
	DecisionSubmitted       Decision = "submitted"
	DecisionApproved        Decision = "approved"
	DecisionRejected        Decision = "rejected"
	DecisionNeedsCorrection Decision = "needs_correction"
)

// ParseReviewDecision accepts the values a reviewer may supply.
func ParseReviewDecision(s string) (Decision, error) {
	d := Decision(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DecisionApproved, DecisionRejected, DecisionNeedsCorrection:
		return d, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "decision must be one of approved, rejected, needs_correction")
}

// ResultingStatus maps a review decision onto the log's status.
// needs_correction lands in rejected; the audit row keeps the original value.
func (d Decision) ResultingStatus() Status {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// LocationType records where the work was performed.
type LocationType string

const (
	LocationRemote LocationType = "remote"
	LocationOnSite LocationType = "on_site"
)

func (l LocationType) IsValid() bool {
	return l == LocationRemote || l == LocationOnSite
}
