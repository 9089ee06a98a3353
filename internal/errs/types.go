package errs

import (
	"net/http"
)

// DatabaseErrorCode marks failures talking to the storage backend.
const DatabaseErrorCode = "DATABASE_ERROR"

// newHTTPError fills Code from the status text unless code is given.
func newHTTPError(status int, message string, override bool, code *string) *HTTPError {
	e := &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(status)),
		Message:  message,
		Status:   status,
		Override: override,
	}
	if code != nil {
		e.Code = *code
	}
	return e
}

// NewBadRequestError is used for requests that reached storage but broke a
// table constraint. code defaults to "BAD_REQUEST".
func NewBadRequestError(message string, override bool, code *string, errors []FieldError) *HTTPError {
	e := newHTTPError(http.StatusBadRequest, message, override, code)
	e.Errors = errors
	return e
}

// NewUnprocessableEntityError reports a body or path parameter that could
// not be bound or failed its rules.
func NewUnprocessableEntityError(message string, override bool, errors []FieldError) *HTTPError {
	e := newHTTPError(http.StatusUnprocessableEntity, message, override, nil)
	e.Errors = errors
	return e
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, override, code)
}

// NewInternalServerError carries no internals, only the status text.
func NewInternalServerError() *HTTPError {
	return newHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false, nil)
}

// NewDatabaseError is a 500 that surfaces the underlying storage message.
func NewDatabaseError(err error) *HTTPError {
	code := DatabaseErrorCode
	return newHTTPError(http.StatusInternalServerError, "Database error: "+err.Error(), false, &code)
}
