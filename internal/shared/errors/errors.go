// Package errors provides application-level error types and utilities.
// Callers branch on the error kind, never on message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the kind of error
type ErrorType string

const (
	ErrorTypeValidation           ErrorType = "validation_error"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeConflict             ErrorType = "conflict"
	ErrorTypeUnauthorized         ErrorType = "unauthorized"
	ErrorTypeForbidden            ErrorType = "forbidden"
	ErrorTypeInternal             ErrorType = "internal_error"
	ErrorTypeBadRequest           ErrorType = "bad_request"
	ErrorTypeTransientStore       ErrorType = "transient_store_error"
	ErrorTypeConfiguration        ErrorType = "configuration_error"
	ErrorTypeNotificationDelivery ErrorType = "notification_delivery_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error without leaking it to clients.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func newError(errType ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, details...)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details...)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newError(ErrorTypeForbidden, http.StatusForbidden, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details...)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newError(ErrorTypeBadRequest, http.StatusBadRequest, message, details...)
}

// NewTransientStoreError marks a read/write against the backing store that
// failed for transient reasons (network, contention). Write paths surface it;
// decision paths fail open instead.
func NewTransientStoreError(message string, details ...string) *AppError {
	return newError(ErrorTypeTransientStore, http.StatusServiceUnavailable, message, details...)
}

// NewConfigurationError marks a referenced plan or metric that is undefined.
func NewConfigurationError(message string, details ...string) *AppError {
	return newError(ErrorTypeConfiguration, http.StatusInternalServerError, message, details...)
}

// NewNotificationDeliveryError marks a failed channel send. It never escapes
// the alerting engine; it exists so retry bookkeeping can branch on kind.
func NewNotificationDeliveryError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotificationDelivery, http.StatusBadGateway, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return IsKind(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return IsKind(err, ErrorTypeValidation)
}

// IsTransientStoreError checks if the error is a transient store error
func IsTransientStoreError(err error) bool {
	return IsKind(err, ErrorTypeTransientStore)
}

// IsConfigurationError checks if the error is a configuration error
func IsConfigurationError(err error) bool {
	return IsKind(err, ErrorTypeConfiguration)
}
