package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidRange         = errors.New("end must be after start")
	ErrEmptyIDs             = errors.New("at least one id is required")
	ErrFutureDateNotAllowed = errors.New("future dates are not allowed for this organization")
	ErrForbidden            = errors.New("not allowed to act on another employee")
	ErrNoRunningLog         = errors.New("no running time log")
	ErrTrackingDisabled     = errors.New("time tracking is disabled for this employee")
	ErrValidation           = errors.New("validation failed")
)

// ValidationError reports a rejected input field. It unwraps to Err when set,
// otherwise to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// IsValidation reports whether err is a caller mistake that should surface as
// a bad request rather than an internal failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrEmptyIDs) ||
		errors.Is(err, ErrFutureDateNotAllowed) ||
		errors.Is(err, ErrValidation)
}
