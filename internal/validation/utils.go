package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/deppfellow/demo-backend/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request types. Validate usually runs
// validator.Struct and returns validator.ValidationErrors, or
// CustomValidationErrors for rules tags cannot express.
type Validatable interface {
	Validate() error
}

// CustomValidationError is one hand-written field rule failure.
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds path params, query params and body into payload and
// validates it.
//
// Every failure, a body that does not decode as well as a rule that does
// not hold, comes back as a 422 *errs.HTTPError.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewUnprocessableEntityError(bindErrorMessage(err), false, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewUnprocessableEntityError(msg, true, fieldErrors)
	}

	return nil
}

// bindErrorMessage pulls the human readable part out of Echo's bind errors.
func bindErrorMessage(err error) string {
	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		return err.Error()
	}

	if msg, ok := echoErr.Message.(string); ok && msg != "" {
		return msg
	}
	return http.StatusText(echoErr.Code)
}

// validateStruct runs v.Validate and returns nil field errors when it passes.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	err := v.Validate()
	if err == nil {
		return "", nil
	}

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		fields := make([]errs.FieldError, 0, len(custom))
		for _, ce := range custom {
			fields = append(fields, errs.FieldError{Field: ce.Field, Error: ce.Message})
		}
		return "Validation failed", fields
	}

	var rules validator.ValidationErrors
	if !errors.As(err, &rules) {
		return "Validation failed", []errs.FieldError{{Error: err.Error()}}
	}

	fields := make([]errs.FieldError, 0, len(rules))
	for _, fe := range rules {
		fields = append(fields, errs.FieldError{
			Field: strings.ToLower(fe.Field()),
			Error: ruleMessage(fe),
		})
	}
	return "Validation failed", fields
}

// ruleMessages holds the wording per validator tag; %s is the tag parameter.
// Length rules on strings get their own "characters" wording.
var ruleMessages = map[string]string{
	"required":   "is required",
	"min":        "must be at least %s",
	"max":        "must not exceed %s",
	"min:string": "must be at least %s characters",
	"max:string": "must not exceed %s characters",
	"oneof":      "must be one of: %s",
	"dive":       "some items are invalid",
}

func ruleMessage(fe validator.FieldError) string {
	tag := fe.Tag()
	if fe.Kind() == reflect.String {
		if format, ok := ruleMessages[tag+":string"]; ok {
			return fmt.Sprintf(format, fe.Param())
		}
	}

	format, ok := ruleMessages[tag]
	if !ok {
		if fe.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", strings.ToLower(fe.Field()), tag, fe.Param())
		}
		return fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), tag)
	}
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, fe.Param())
	}
	return format
}
