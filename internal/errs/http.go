// Package errs defines the error shape every failing request is answered with.
//
// Handlers and services return *HTTPError values; the global error handler in
// the middleware package serializes them as JSON:
//
//	{"code": "NOT_FOUND", "message": "Item not found", "status": 404, ...}
package errs

import "strings"

// FieldError names one rejected input field, e.g.
//
//	{ "field": "name", "error": "is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is returned by services and handlers and written as the
// response body as is.
//
// Override marks a Message that is safe to show end users unchanged.
type HTTPError struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError regardless of code or status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// MakeUpperCaseWithUnderscores turns a status text into a code:
// "Bad Request" becomes "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
