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

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusInternalServerError, "cache miss")
)

// Scheduling engine errors. The engine fails fast with one of these instead of
// returning a partial or guessed result.
var (
	ErrInvalidWeekday       = New("INVALID_WEEKDAY", http.StatusBadRequest, "weekday index out of range")
	ErrUnknownTimezone      = New("UNKNOWN_TIMEZONE", http.StatusBadRequest, "unrecognized timezone identifier")
	ErrInvalidEditScope     = New("INVALID_EDIT_SCOPE", http.StatusBadRequest, "edit scope not applicable to this slot")
	ErrNoFutureInstances    = New("NO_FUTURE_INSTANCES", http.StatusBadRequest, "no future instances beyond the target date")
	ErrUnrecognizedFormat   = New("UNRECOGNIZED_AVAILABILITY_FORMAT", http.StatusUnprocessableEntity, "availability payload has an unrecognized shape")
	ErrOverlapConflict      = New("OVERLAP_CONFLICT", http.StatusConflict, "slot overlaps an existing booking or availability")
	ErrInvalidAvailability  = New("INVALID_AVAILABILITY", http.StatusBadRequest, "availability rule violates an invariant")
	ErrWindowTooLarge       = New("WINDOW_TOO_LARGE", http.StatusBadRequest, "requested expansion window exceeds the maximum")
	ErrUnsupportedExportFmt = New("UNSUPPORTED_EXPORT_FORMAT", http.StatusBadRequest, "unsupported export format")
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

// Is reports whether err carries the same code as target. Predefined errors are
// cloned before being returned to callers, so identity comparison is not enough.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == target.Code
	}
	return false
}
