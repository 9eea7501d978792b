package models

import (
	"errors"
	"fmt"
)

// Error kinds callers can branch on with errors.Is/errors.As. Generator
// failures are surfaced, never translated into a default approval.
var (
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrResourceExhausted    = errors.New("resource exhausted")
	ErrGeneratorUnavailable = errors.New("proposal generator unavailable")
	ErrGeneratorMalformed   = errors.New("proposal generator returned malformed payload")
)

// ValidationError describes a malformed candidate field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field-level validation error.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError marks an incomplete or inconsistent policy snapshot.
// The gate fails closed on it: require_review, never auto_approve.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a configuration error.
func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

// ResourceExhaustedError records which admission limit was hit. The
// candidate is deferred with this reason, not dropped.
type ResourceExhaustedError struct {
	Limit string // "per_hour" | "per_day"
	Max   int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: %s limit of %d reached", e.Limit, e.Max)
}

func (e *ResourceExhaustedError) Unwrap() error { return ErrResourceExhausted }
