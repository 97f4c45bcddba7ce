// Package apperr defines the errors that map onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("service unavailable")
)

// Error carries an HTTP status and a message safe to show to clients.
type Error struct {
	Status  int
	Kind    error
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func Authentication(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Kind: ErrAuthentication, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Kind: ErrForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Kind: ErrConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Kind: ErrNotFound, Message: msg}
}

func Unavailable(msg string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Kind: ErrUnavailable, Message: msg}
}

// Validation reports invalid input; fields holds one message per failed rule.
func Validation(fields ...string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Kind:    ErrValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
