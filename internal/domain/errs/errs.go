// Package errs holds the error kinds every domain package wraps.
// Callers classify failures with errors.Is against these sentinels.
package errs

import "errors"

var (
	ErrNotFound                  = errors.New("not found")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrInvalidState              = errors.New("invalid state")
	ErrAlreadyVoted              = errors.New("already voted")
	ErrInsufficientShares        = errors.New("insufficient shares")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrUnsupportedAllocationType = errors.New("unsupported allocation type")
	ErrSelfGuarantee             = errors.New("self guarantee")
	ErrValidation                = errors.New("validation error")

	// Conflict and Unavailable are produced by the retry policy once attempts run out.
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

// Kind returns the sentinel err wraps, or nil when it is not a domain error.
func Kind(err error) error {
	for _, k := range []error{
		ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrAlreadyVoted,
		ErrInsufficientShares, ErrInsufficientFunds, ErrUnsupportedAllocationType,
		ErrSelfGuarantee, ErrValidation, ErrConflict, ErrUnavailable,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
