package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Validatable is implemented by request types. Validate returns either
// validator.ValidationErrors or CustomValidationErrors.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a rule that struct tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate fills payload from the request and validates it. Both
// steps fail with a 400.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindMessage(err), false, nil, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return "Malformed request body"
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		for _, ce := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: ce.Field,
				Error: ce.Message,
			})
		}
		return "Validation failed", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Validation failed", []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: tagMessage(field, fe),
		})
	}

	return "Validation failed", fieldErrors
}

func tagMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "datetime":
		return fmt.Sprintf("must be a date formatted as %s", fe.Param())
	case "semester":
		return "must look like 2024A or 2024B"
	case "dive":
		return "some items are invalid"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: %s:%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: %s", field, fe.Tag())
}
