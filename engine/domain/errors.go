package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for request-fatal conditions and validation failures.
var (
	ErrInvalidVIN       = errors.New("invalid VIN")
	ErrVINNotFound      = errors.New("VIN not found")
	ErrNoCatalogForMake = errors.New("no catalog data for make")
	ErrNoImages         = errors.New("no images supplied")
)

// ValidationError wraps a sentinel with field context.
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
