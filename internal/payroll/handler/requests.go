package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"contractpay/internal/payroll/models"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	platformstrings "contractpay/pkg/platform/strings"
)

// ProcessRequest is the body of POST /payroll/payouts/process.
type ProcessRequest struct {
	PayoutIDs []string `json:"payout_ids" validate:"required,min=1,max=500"`

	parsedIDs []id.PayoutID
}

func (r *ProcessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	raw := platformstrings.DedupeAndTrim(r.PayoutIDs)
	if len(raw) == 0 {
		return dErrors.New(dErrors.CodeValidation, "payout_ids must not be empty")
	}
	ids := make([]id.PayoutID, 0, len(raw))
	for _, s := range raw {
		payoutID, err := id.ParsePayoutID(s)
		if err != nil {
			return err
		}
		ids = append(ids, payoutID)
	}
	r.parsedIDs = ids
	return nil
}

func (r *ProcessRequest) ParsedIDs() []id.PayoutID { return r.parsedIDs }

// FailRequest is the body of POST /payroll/payouts/{id}/fail.
type FailRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (r *FailRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// parseFilter reads the list query string.
func parseFilter(q url.Values) (models.Filter, error) {
	var f models.Filter
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = status
	}
	if raw := q.Get("tax_year"); raw != "" {
		year, err := parseYear(raw)
		if err != nil {
			return f, err
		}
		f.TaxYear = year
	}
	if raw := q.Get("from"); raw != "" {
		from, err := parseDate("from", raw)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseDate("to", raw)
		if err != nil {
			return f, err
		}
		f.To = &to
	}
	if raw := q.Get("talent_id"); raw != "" {
		talentID, err := id.ParseTalentID(raw)
		if err != nil {
			return f, err
		}
		f.TalentID = talentID
	}
	return f, f.Validate()
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "tax_year must be a number")
	}
	return year, models.ValidateTaxYear(year)
}

func parseDate(field, raw string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be YYYY-MM-DD")
	}
	return d, nil
}
