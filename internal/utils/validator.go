package utils

import (
	"reflect"
	"strings"

	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with our custom rules registered.
type Validator struct {
	structValidator *validator.Validate
}

// NewValidator creates a centralized validator instance
func NewValidator() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags
func (v *Validator) Validate(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Custom validation functions

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

// registerCustomValidators registers all custom validators
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
