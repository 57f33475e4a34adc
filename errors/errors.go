package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Caller errors
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeExpired         ErrorType = "expired"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeRateLimit       ErrorType = "rate_limit"

	// Media I/O errors
	ErrorTypeSourceUnreadable      ErrorType = "source_unreadable"
	ErrorTypeDecodeFailed          ErrorType = "decode_failed"
	ErrorTypeDestinationUnwritable ErrorType = "destination_unwritable"
	ErrorTypeEncodeFailed          ErrorType = "encode_failed"
	ErrorTypeRenderFailed          ErrorType = "render_failed"

	// System errors
	ErrorTypeStorage  ErrorType = "storage"
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.InnerError != nil {
		return msg + ": " + e.InnerError.Error()
	}
	return msg
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is reports whether target is an *AppError of the same type.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Type == t.Type
	}
	return false
}

// WithMessage replaces the message.
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithHTTPStatus sets the HTTP status code
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// Status returns the HTTP status for the error, falling back to a
// per-type default.
func (e *AppError) Status() int {
	if e.HTTPStatus > 0 {
		return e.HTTPStatus
	}
	if s, ok := defaultStatus[e.Type]; ok {
		return s
	}
	return http.StatusInternalServerError
}

var defaultStatus = map[ErrorType]int{
	ErrorTypeInvalidArgument:       http.StatusBadRequest,
	ErrorTypeNotFound:              http.StatusNotFound,
	ErrorTypeExpired:               http.StatusGone,
	ErrorTypeConflict:              http.StatusConflict,
	ErrorTypeRateLimit:             http.StatusTooManyRequests,
	ErrorTypeSourceUnreadable:      http.StatusBadRequest,
	ErrorTypeDecodeFailed:          http.StatusUnprocessableEntity,
	ErrorTypeDestinationUnwritable: http.StatusInternalServerError,
	ErrorTypeEncodeFailed:          http.StatusInternalServerError,
	ErrorTypeRenderFailed:          http.StatusInternalServerError,
	ErrorTypeStorage:               http.StatusBadGateway,
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    strings.ToUpper(string(errType)),
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...))
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       strings.ToUpper(string(ErrorTypeUnknown)),
		Message:    err.Error(),
		InnerError: err,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return New(errType, message).WithInnerError(err)
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	return FromError(err).Type
}

// Is and As are re-exported so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// Sentinels for errors.Is matching by type.
var (
	ErrInvalidArgument       = New(ErrorTypeInvalidArgument, "invalid argument")
	ErrNotFound              = New(ErrorTypeNotFound, "not found")
	ErrExpired               = New(ErrorTypeExpired, "expired")
	ErrConflict              = New(ErrorTypeConflict, "conflict")
	ErrRateLimit             = New(ErrorTypeRateLimit, "rate limit exceeded")
	ErrSourceUnreadable      = New(ErrorTypeSourceUnreadable, "source unreadable")
	ErrDecodeFailed          = New(ErrorTypeDecodeFailed, "decode failed")
	ErrDestinationUnwritable = New(ErrorTypeDestinationUnwritable, "destination unwritable")
	ErrEncodeFailed          = New(ErrorTypeEncodeFailed, "encode failed")
	ErrRenderFailed          = New(ErrorTypeRenderFailed, "render failed")
	ErrStorage               = New(ErrorTypeStorage, "storage failure")
)

// InvalidArgument builds an invalid_argument error naming the field.
func InvalidArgument(field string, value any, reason string) *AppError {
	return Newf(ErrorTypeInvalidArgument, "invalid value for %s: %v", field, value).
		WithDetail("field", field).
		WithDetail("reason", reason)
}
