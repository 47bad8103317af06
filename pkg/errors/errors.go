// Package errors defines the error values shared by the storefront services
// and their mapping onto HTTP statuses and envelope codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrGone           = errors.New("resource gone")
	ErrServiceUnavail = errors.New("service unavailable")
)

// kind describes how a sentinel surfaces over HTTP. message is what a bare
// (non-AppError) occurrence tells the client; empty means the error text.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrConflict, "CONFLICT", http.StatusConflict, "resource was modified concurrently"},
	{ErrGone, "GONE", http.StatusGone, "resource is no longer available"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "a dependency is unavailable"},
}

const (
	internalCode    = "INTERNAL_ERROR"
	internalMessage = "an internal error occurred"
)

// AppError is an error with a client-facing code and message. Err keeps the
// sentinel (and cause, if any) for errors.Is.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	return &AppError{Code: internalCode, Message: message, Status: http.StatusInternalServerError, Err: sentinel}
}

func NotFound(resource, id string) *AppError {
	return newAppError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

func InvalidInput(message string) *AppError { return newAppError(ErrInvalidInput, message) }

// Conflict reports a lost optimistic write.
func Conflict(message string) *AppError { return newAppError(ErrConflict, message) }

func Gone(message string) *AppError { return newAppError(ErrGone, message) }

// ServiceUnavailable reports a failing dependency. cause may be nil.
func ServiceUnavailable(message string, cause error) *AppError {
	e := newAppError(ErrServiceUnavail, message)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	return e
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return &AppError{Code: internalCode, Message: internalMessage, Status: http.StatusInternalServerError, Err: cause}
}

// Classify returns the AppError in err's chain or, failing that, one built
// from the first matching sentinel. Anything else is an internal error whose
// text is not exposed.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			msg := k.message
			if msg == "" {
				msg = err.Error()
			}
			return &AppError{Code: k.code, Message: msg, Status: k.status, Err: err}
		}
	}
	return Internal(err)
}

// HTTPStatus is the status Classify assigns to err.
func HTTPStatus(err error) int {
	return Classify(err).Status
}
