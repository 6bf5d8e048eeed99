package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodePersistence   ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeNotification  ErrorCode = "NOTIFICATION_ERROR"
	ErrCodeForwarding    ErrorCode = "FORWARDING_ERROR"
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	// Fields names the offending payload fields of a validation error.
	Fields []string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a not-found error for the named resource.
func NotFound(resource, id string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// Persistence wraps a store failure.
func Persistence(op string, err error) *AppError {
	return Wrap(ErrCodePersistence, "failed to "+op, err)
}

// Validation builds a validation error listing every missing and invalid field.
// It returns nil when both lists are empty.
func Validation(missing, invalid []string) *AppError {
	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "Invalid fields: "+strings.Join(invalid, ", "))
	}
	fields := make([]string, 0, len(missing)+len(invalid))
	fields = append(fields, missing...)
	fields = append(fields, invalid...)
	return &AppError{
		Code:    ErrCodeValidation,
		Message: strings.Join(parts, "; "),
		Fields:  fields,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// IsNotFound checks if error is NotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsUnauthorized checks if error is Unauthorized
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized
}

// IsForbidden checks if error is Forbidden
func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

// IsValidation checks if error is a validation failure
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsPersistence checks if error is a store failure
func IsPersistence(err error) bool {
	return CodeOf(err) == ErrCodePersistence
}
