package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("maxPossibleMarks", "must be greater than 0", 0)

	if err.Field != "maxPossibleMarks" {
		t.Errorf("Expected field to be 'maxPossibleMarks', got '%s'", err.Field)
	}

	if err.Message != "must be greater than 0" {
		t.Errorf("Expected message to be 'must be greater than 0', got '%s'", err.Message)
	}

	if err.Value != 0 {
		t.Errorf("Expected value to be 0, got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'maxPossibleMarks': must be greater than 0"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Empty collection keeps the generic message
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Single error names the field
	errs = append(errs, *NewValidationError("technology", "must be at most 100", nil))
	expected := "validation failed: technology must be at most 100"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Multiple errors collapse to a count
	errs = append(errs, *NewValidationError("time_spent", "must be at least 0", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("difficulty_level", "must be Easy, Medium, or Hard", "difficulty_level", "impossible")

	if err.Rule != "difficulty_level" {
		t.Errorf("Expected rule to be 'difficulty_level', got '%s'", err.Rule)
	}

	if err.Field != "difficulty_level" {
		t.Errorf("Expected field to be 'difficulty_level', got '%s'", err.Field)
	}

	if err.Value != "impossible" {
		t.Errorf("Expected value to be 'impossible', got '%v'", err.Value)
	}
}
