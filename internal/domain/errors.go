package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidQuality is returned when a review quality is outside 0..5.
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")

	// ErrInvalidDifficultyFelt is returned when a perceived difficulty is outside 1..5.
	ErrInvalidDifficultyFelt = errors.New("difficulty_felt must be between 1 and 5")

	// ErrInvalidEnergyLevel is returned when an energy level is outside 0..10.
	ErrInvalidEnergyLevel = errors.New("energy_level must be between 0 and 10")

	// ErrInvalidTimeOfDay is returned when a time-of-day hour is outside 0..23.
	ErrInvalidTimeOfDay = errors.New("time_of_day_hour must be between 0 and 23")

	// ErrInvalidStage is returned when a graduation stage is not one of the
	// known enum values.
	ErrInvalidStage = errors.New("invalid graduation stage")
)

// IsValidationError checks if the error is any kind of input validation
// error. These are rejected before any mutation and are never retried.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidQuality) ||
		errors.Is(err, ErrInvalidDifficultyFelt) ||
		errors.Is(err, ErrInvalidEnergyLevel) ||
		errors.Is(err, ErrInvalidTimeOfDay) ||
		errors.As(err, &ve)
}

// ValidationError carries the field that failed validation alongside a
// human-readable message. It wraps ErrValidation (or a more specific sentinel)
// so callers can classify it with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
