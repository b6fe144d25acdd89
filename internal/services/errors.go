package services

import (
	"errors"
	"fmt"

	apperrors "github.com/PrepMaster-App/analytics-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Submission specific errors
	ErrInvalidMarks         = errors.New("max marks must be greater than zero")
	ErrAnsweredExceedsTotal = errors.New("questions answered exceeds total questions")
	ErrMarksExceedMax       = errors.New("marks obtained exceed max possible marks")
	ErrNegativeContribution = errors.New("submission values must not be negative")
	ErrUnknownMergePolicy   = errors.New("unknown merge policy")

	// Store errors
	ErrStoreUnavailable = errors.New("progress store unavailable")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// StoreError wraps a persistence failure so callers can distinguish it from
// user-correctable input problems. It is surfaced, never retried here.
type StoreError struct {
	Op  string
	Err error
}

func (se *StoreError) Error() string {
	return fmt.Sprintf("progress store failure during %s: %v", se.Op, se.Err)
}

func (se *StoreError) Unwrap() error {
	return se.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidMarks) ||
		errors.Is(err, ErrAnsweredExceedsTotal) ||
		errors.Is(err, ErrMarksExceedMax) ||
		errors.Is(err, ErrNegativeContribution) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsStoreError checks if error represents a persistence failure
func IsStoreError(err error) bool {
	if errors.Is(err, ErrStoreUnavailable) {
		return true
	}
	var se *StoreError
	return errors.As(err, &se)
}
