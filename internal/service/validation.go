package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

// NewValidator returns a validator reporting json field names and knowing the
// configured whitelists through the "course" and "payment_method" tags.
func NewValidator(courses, paymentMethods []string) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("course", whitelist(courses))
	_ = v.RegisterValidation("payment_method", whitelist(paymentMethods))
	return v
}

func whitelist(values []string) validator.Func {
	allowed := make(map[string]struct{}, len(values))
	for _, value := range values {
		allowed[value] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}

// validationError maps validator failures onto the API taxonomy. Missing
// fields win over unknown courses, which win over malformed values.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid input")
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return appErrors.Wrap(err, appErrors.ErrMissingField.Code, appErrors.ErrMissingField.Status,
				fmt.Sprintf("missing required field: %s", fieldPath(fe)))
		}
	}
	for _, fe := range verrs {
		if fe.Tag() == "course" {
			return appErrors.Wrap(err, appErrors.ErrInvalidCourse.Code, appErrors.ErrInvalidCourse.Status,
				fmt.Sprintf("invalid course option: %v", fe.Value()))
		}
	}

	fe := verrs[0]
	return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, describe(fe))
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "payment_method":
		return fmt.Sprintf("invalid payment method: %v", fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
