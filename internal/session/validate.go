package session

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pixelflare/studio/internal/gateway"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a form before it is submitted. The returned error is a
// gateway validation error whose message is fit for display.
func Validate(form any) error {
	err := validatorInstance().Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return gateway.ValidationError("invalid form", err)
	}

	return gateway.ValidationError(describe(fieldErrs[0]), err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldLabel(fe.Field()))
	case "email":
		return "Please enter a valid email address"
	case "eqfield":
		return "Passwords do not match"
	case "nefield":
		return fmt.Sprintf("%s must differ from the current one", fieldLabel(fe.Field()))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fieldLabel(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fieldLabel(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fieldLabel(fe.Field()), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fieldLabel(fe.Field()), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fieldLabel(fe.Field()), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fieldLabel(fe.Field()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldLabel(fe.Field()), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fieldLabel(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldLabel(fe.Field()))
	}
}

func fieldLabel(field string) string {
	switch field {
	case "FirstName":
		return "First name"
	case "LastName":
		return "Last name"
	case "ConfirmPassword":
		return "Password confirmation"
	case "AdminPassword":
		return "Admin password"
	case "AccessCode":
		return "Admin access code"
	case "CurrentPassword":
		return "Current password"
	case "NewPassword":
		return "New password"
	case "ServiceID":
		return "Service"
	case "BasePrice":
		return "Base price"
	case "DurationMinutes":
		return "Duration"
	default:
		return field
	}
}
