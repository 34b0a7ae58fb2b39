package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/student-admin-service/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the validate tags of req and returns a VALIDATION_FAILED error listing
// every failing field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewBadRequest("invalid payload")
	}

	messages := make([]string, 0, len(fieldErrs))
	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.ActualTag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field %s is required", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("field %s is invalid", fe.Field()))
		}
		fields[fe.Field()] = fe.ActualTag()
	}
	return apperrors.NewValidationError(strings.Join(messages, ", "), map[string]any{"fields": fields})
}
