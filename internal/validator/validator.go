package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var currencyRgx = regexp.MustCompile(`^[a-z]{3}$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("currency", validateCurrency)

	return validator
}

// validateCurrency accepts lowercase ISO 4217 codes, the form payment
// providers expect.
func validateCurrency(fl validator.FieldLevel) bool {
	return currencyRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	case "url":
		return "must be a valid URL"
	case "currency":
		return "must be a lowercase three-letter currency code"
	default:
		return "is invalid"
	}
}
