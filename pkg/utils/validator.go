package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so error messages match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the `validate` struct tags of s.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FirstFieldError returns the field name and a readable message for the first
// failed rule in err, or ok=false when err is not a validation error.
func FirstFieldError(err error) (field, message string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}

	fe := verrs[0]
	field = fe.Field()

	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "gte":
		message = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		message = fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "max":
		message = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		message = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		message = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}

	return field, message, true
}
