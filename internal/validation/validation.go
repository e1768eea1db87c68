// Package validation runs go-playground struct tag rules and reports failures
// as an apperr.ValidationError keyed by the json field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-records/internal/apperr"
)

// PhonePattern is an optional leading + followed by 10 to 15 digits.
var PhonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s and returns nil or a *apperr.ValidationError. Field and
// Message describe the first failure; Details holds one message per failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if _, seen := details[fe.Field()]; !seen {
				details[fe.Field()] = message(fe)
			}
		}
		fe := verrs[0]
		return &apperr.ValidationError{Field: fe.Field(), Message: message(fe), Details: details}
	}
	return fmt.Errorf("validate input: %w", err)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter Valid Phone Number"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "eqfield":
		return "Passwords don't match."
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
