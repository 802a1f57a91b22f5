package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: a uniqueness or concurrent-update conflict
//   - ErrInvalidState: entity in wrong state for the requested conditional update
//   - ErrInsufficientFunds: a conditional debit found too small a balance
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrOutOfRange: a counter update would leave its column's range
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
	ErrOutOfRange        = errors.New("out of range")
)
