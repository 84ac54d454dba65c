package utils

import (
	"errors"
	"net/http"
)

// ErrorKind classifies failures for the HTTP layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

var kindNames = map[ErrorKind]string{
	KindInternal:     "Internal",
	KindInvalidInput: "InvalidInput",
	KindUnauthorized: "Unauthorized",
	KindForbidden:    "Forbidden",
	KindNotFound:     "NotFound",
	KindConflict:     "Conflict",
	KindRateLimited:  "RateLimited",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k ErrorKind) StatusCode() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error every component hands back to the HTTP layer.
// Message and Hint are safe to show to clients; Err is not.
type AppError struct {
	Kind    ErrorKind
	Message string
	Hint    string
	Err     error
}

func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// WithHint returns a copy of e carrying hint.
func (e *AppError) WithHint(hint string) *AppError {
	cp := *e
	cp.Hint = hint
	return &cp
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError extracts the AppError from err, or wraps err as Internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return WrapError(KindInternal, INTERNAL_SERVER_ERROR, err)
}

// KindOf reports the kind of err; unknown errors are Internal.
func KindOf(err error) ErrorKind {
	return AsAppError(err).Kind
}
