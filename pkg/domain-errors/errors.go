// Package domainerrors defines coded errors shared by services and transports.
//
// Services return *Error values; transports translate Code into a status via
// HTTPStatus. Stores never build these directly: they return sentinel errors
// (see pkg/platform/sentinel) that services translate at the boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure for callers.
type Code string

const (
	// CodeBadRequest covers malformed bodies and unparseable input.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers well-formed input that breaks a field rule.
	CodeValidation Code = "validation_error"
	// CodeInvalidInput is used by domain primitives when parsing fails.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthorized means the caller credential is missing or invalid.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is authenticated but lacks the role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means a referenced record does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict means the record's current state does not permit the
	// requested transition. Details carry the offending ids.
	CodeConflict Code = "state_conflict"
	// CodeInvariantViolation flags a broken internal invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeTimeout means the unit of work ran out of time.
	CodeTimeout Code = "timeout"
	// CodeInternal is a persistence or server-side failure.
	CodeInternal Code = "internal_error"
)

// Error is the coded error type returned by services.
type Error struct {
	Code    Code
	Message string
	// Details lists identifiers the caller needs to reconcile the failure,
	// e.g. the time-log ids that blocked a batch submission.
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = append([]string(nil), details...)
	return &cp
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap annotates err with a code and message. A nil err still yields an error
// so call sites can wrap unconditionally on failure paths.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err's chain holds an *Error with the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the HTTP status used by transports.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
