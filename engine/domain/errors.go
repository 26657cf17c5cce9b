package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation and persistence failures.
var (
	ErrInvalidVehicle  = errors.New("invalid vehicle")
	ErrInvalidChassis  = errors.New("invalid chassis number")
	ErrCarNameTooShort = errors.New("car name too short")
	ErrInvalidWhatsApp = errors.New("invalid whatsapp number")
	ErrEmptyQuery      = errors.New("chassis or plate required")
	ErrEmptyBatch      = errors.New("no vehicles to upload")
	ErrAlreadyExists   = errors.New("vehicle already exists")
	ErrNotFound        = errors.New("vehicle not found")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// IsValidation reports whether err came from the validation gate.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
