package apperrors

import "errors"

// Sentinel errors for the reservation core. Callers branch with errors.Is;
// the HTTP layer maps them to status codes, sweepers log and move on.
var (
	ErrValidation             = errors.New("invalid request")
	ErrNotFound               = errors.New("not found")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrencyConflict    = errors.New("concurrent update conflict")
	ErrExternalService        = errors.New("external service failure")
)

// IsBenign reports whether an error from confirm/cancel is the harmless
// outcome of losing a race against another transition (already confirmed by a
// duplicate delivery, already reclaimed by the expiry sweep). Automated
// callers treat these as no-ops rather than failures.
func IsBenign(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition)
}
