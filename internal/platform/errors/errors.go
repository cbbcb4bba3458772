// Package errors provides structured errors that carry a category, request
// context and an HTTP status mapping for the companion server's handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the category of an error. It picks the HTTP status and the
// log level.
type ErrorType string

const (
	TypeValidation   ErrorType = "validation"
	TypeUnauthorized ErrorType = "unauthorized" // Twitch authorization must be renewed
	TypeNotFound     ErrorType = "not_found"
	TypeInternal     ErrorType = "internal"
	TypeExternal     ErrorType = "external" // Twitch or another upstream failed
)

var statusByType = map[ErrorType]int{
	TypeValidation:   http.StatusBadRequest,
	TypeUnauthorized: http.StatusUnauthorized,
	TypeNotFound:     http.StatusNotFound,
	TypeInternal:     http.StatusInternalServerError,
	TypeExternal:     http.StatusBadGateway,
}

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Type) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus answers 500 for unknown types.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

func UnauthorizedError(message string, cause error) *Error {
	return newError(TypeUnauthorized, message, cause)
}

func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithField attaches a detail that is both logged and returned to the
// client.
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON body sent to clients. The "error" key matches
// what the dashboard and browser extension already read.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError returns err itself when it is (or wraps) an *Error and
// wraps anything else as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	if structuredErr, ok := errors.AsType[*Error](err); ok {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
