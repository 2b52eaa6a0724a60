package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrorTypeExternal     ErrorType = "EXTERNAL"
)

// AppError is an error that knows how it should be rendered over HTTP.
type AppError struct {
	Type       ErrorType
	Message    string
	Details    map[string]interface{}
	Cause      error
	HTTPStatus int
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newError(t ErrorType, status int, message string) *AppError {
	return &AppError{Type: t, Message: message, HTTPStatus: status}
}

func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message)
}

// NewNotFoundError creates a "<resource> not found" error.
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// NewNotFoundErrorf creates a not-found error with a formatted message.
func NewNotFoundErrorf(format string, args ...interface{}) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf(format, args...))
}

func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message)
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(ErrorTypeForbidden, http.StatusForbidden, message)
}

func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message).WithCause(cause)
}

func NewUnavailableError(message string) *AppError {
	return newError(ErrorTypeUnavailable, http.StatusServiceUnavailable, message)
}

// NewExternalError reports a failure of an upstream dependency (502).
func NewExternalError(message string, cause error) *AppError {
	return newError(ErrorTypeExternal, http.StatusBadGateway, message).WithCause(cause)
}

// Wrap turns an arbitrary error into an internal AppError, leaving AppErrors untouched.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if GetAppError(err) != nil {
		return err
	}
	return NewInternalError(message, err)
}

// GetAppError extracts an AppError from the error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}
