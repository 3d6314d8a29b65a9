package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so cloned messages still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && t != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Validation errors: deterministic, reported synchronously, never retried.
var (
	ErrInvalidTimeFormat = New("INVALID_TIME_FORMAT", http.StatusBadRequest, "time must be HH:MM in 24-hour format")
	ErrInvalidTimeRange  = New("INVALID_TIME_RANGE", http.StatusBadRequest, "end time must be after start time")
	ErrDateInPast        = New("DATE_IN_PAST", http.StatusBadRequest, "date is in the past")
	ErrDateNotReached    = New("DATE_NOT_REACHED", http.StatusBadRequest, "session date has not been reached")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
)

// Authorization errors: terminal for the request.
var (
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrTrainerInactive    = New("TRAINER_INACTIVE", http.StatusForbidden, "trainer is not active")
	ErrTrainerNotAssigned = New("TRAINER_NOT_ASSIGNED", http.StatusForbidden, "trainer is not assigned to this member")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
)

// Conflict errors: retryable by the caller after re-fetching availability.
var (
	ErrSlotUnavailable = New("SLOT_UNAVAILABLE", http.StatusConflict, "requested slot is not available")
	ErrAlreadyTerminal = New("ALREADY_TERMINAL", http.StatusConflict, "session is already in a terminal state")
	ErrConflict        = New("CONFLICT", http.StatusConflict, "conflict")
)

// Not-found errors: terminal.
var (
	ErrSessionNotFound = New("SESSION_NOT_FOUND", http.StatusNotFound, "session not found")
	ErrTrainerNotFound = New("TRAINER_NOT_FOUND", http.StatusNotFound, "trainer not found")
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
)

var (
	ErrInternal  = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
