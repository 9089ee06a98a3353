// Package handler is the first layer after the router.
//
// It binds and validates requests through the validation
// package, calls the service layer and writes the response.
// Errors are returned untouched; the global error handler in
// the middleware package turns them into JSON.
package handler
