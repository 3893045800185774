// Package validation checks discovery settings, both through struct tags
// and through a fluent validator for cross-field rules.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// ErrInvalid wraps every struct-tag validation failure
	ErrInvalid = errors.New("invalid value")
)

func init() {
	validate = validator.New()
}

// Struct validates v using its `validate` struct tags. Only the first
// failing field is reported.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Rates checks an (activity, path) pair of percentages
func Rates(activity, path float64) error {
	return NewConfigValidator("Rates").
		Rate("Activities", activity).
		Rate("Paths", path).
		Validate()
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		return describe(e.Namespace(), e)
	}
	return err
}

func describe(field string, e validator.FieldError) error {
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%w: %s: field is required", ErrInvalid, field)
	case "min", "gte":
		return fmt.Errorf("%w: %s: must be at least %s", ErrInvalid, field, param)
	case "max", "lte":
		return fmt.Errorf("%w: %s: must not exceed %s", ErrInvalid, field, param)
	case "gt":
		return fmt.Errorf("%w: %s: must be greater than %s", ErrInvalid, field, param)
	case "oneof":
		return fmt.Errorf("%w: %s: must be one of [%s]", ErrInvalid, field, param)
	case "dive":
		// For array elements
		return fmt.Errorf("%w: %s: invalid element in array", ErrInvalid, field)
	default:
		return fmt.Errorf("%w: %s: validation failed (%s)", ErrInvalid, field, e.Tag())
	}
}
