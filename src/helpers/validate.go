package helpers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		}
		return name
	})
}

// FieldError describes one rejected request field.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// -----------------------------------------------------------------------------

// ApplyDefaultsAndValidate fills `default:` tags on zero fields, then checks
// `validate:` tags. A failure is returned as *ValidationError naming the
// first offending field.
func ApplyDefaultsAndValidate(ctx context.Context, req interface{}) error {
	if err := defaults.Set(req); err != nil {
		return &ValidationError{AnalyzerError: AnalyzerError{Message: "invalid defaults", Cause: err}}
	}
	return ValidateStruct(ctx, req)
}

// Ptr returns a pointer to v, for optional request fields.
func Ptr[T any](v T) *T {
	return &v
}

// ValidateStruct checks `validate:` tags only.
func ValidateStruct(ctx context.Context, v interface{}) error {
	err := validate.StructCtx(ctx, v)
	if err == nil {
		return nil
	}

	fields := FieldErrors(err)
	if len(fields) == 0 {
		return &ValidationError{AnalyzerError: AnalyzerError{Message: "invalid request", Cause: err}}
	}
	vErr := NewValidationError(fields[0].Field, "%s", fields[0].Message)
	vErr.Cause = err
	return vErr
}

// -----------------------------------------------------------------------------

// FieldErrors flattens validator errors for API responses.
func FieldErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, FieldError{
			Code:    "ERR_" + strings.ToUpper(e.Tag()),
			Field:   field,
			Message: fieldErrorMessage(e),
		})
	}
	return out
}

// -----------------------------------------------------------------------------

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
