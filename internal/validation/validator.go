// Package validation wraps go-playground/validator with a shared instance that reports
// failures as *apperrors.ErrValidation keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. It is safe for concurrent use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their wire name so messages line up with request bodies
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		// "   " passes required, so text fields use nonblank
		_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates s and returns nil or an *apperrors.ErrValidation
func Struct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("non_field_errors", err.Error())
	}

	out := &apperrors.ErrValidation{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), translate(fe))
	}
	return out
}

var messages = map[string]string{
	"required": "is required",
	"nonblank": "must not be blank",
	"numeric":  "must be a number",
}

var messagesWithParam = map[string]string{
	"oneof": "must be one of: %s",
	"len":   "must have exactly %s characters",
}

func translate(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()
	if msg, ok := messages[tag]; ok {
		return msg
	}
	if tmpl, ok := messagesWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, param)
	}

	switch tag {
	case "eqfield":
		return "must match " + strings.ToLower(param)
	case "min", "max":
		return minMax(fe.Kind(), tag, param)
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}

func minMax(kind reflect.Kind, tag, param string) string {
	bound := "at least"
	if tag == "max" {
		bound = "at most"
	}
	switch kind {
	case reflect.String:
		return fmt.Sprintf("must be %s %s characters", bound, param)
	case reflect.Slice, reflect.Map, reflect.Array:
		return fmt.Sprintf("must contain %s %s items", bound, param)
	default:
		return fmt.Sprintf("must be %s %s", bound, param)
	}
}
