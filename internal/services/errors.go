package services

import (
	"errors"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/store"
)

var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = store.ErrNotFound

	// ErrForbidden is returned when the acting user is outside the record's domain
	ErrForbidden = errors.New("operation not permitted for this user")

	// ErrInvalidCredentials is returned for an unknown username or a wrong passcode
	ErrInvalidCredentials = errors.New("invalid username or passcode")

	// ErrInvalidTransition is returned when a status change is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation is returned when input fails validation
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a write would violate a uniqueness rule
	ErrConflict = errors.New("conflict")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
