package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an application failure that knows how it is presented to clients.
// Errors with a 4xx status are rendered as "fail" envelopes carrying Details,
// anything else as an "error" envelope.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Details any    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Common application errors
var (
	ErrNotFound           = &AppError{Code: CodeNotFound, Message: "resource not found", Status: http.StatusNotFound}
	ErrBadRequest         = &AppError{Code: CodeBadRequest, Message: "bad request", Status: http.StatusBadRequest}
	ErrValidation         = &AppError{Code: CodeValidation, Message: "validation failed", Status: http.StatusBadRequest}
	ErrUnauthorized       = &AppError{Code: CodeUnauthorized, Message: "unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: CodeForbidden, Message: "insufficient permissions", Status: http.StatusForbidden}
	ErrConflict           = &AppError{Code: CodeConflict, Message: "resource conflict", Status: http.StatusConflict}
	ErrTooManyRequests    = &AppError{Code: CodeTooManyRequests, Message: "too many requests", Status: http.StatusTooManyRequests}
	ErrInternalError      = &AppError{Code: CodeInternalError, Message: "internal server error", Status: http.StatusInternalServerError}
	ErrServiceUnavailable = &AppError{Code: CodeServiceUnavailable, Message: "service unavailable", Status: http.StatusServiceUnavailable}
)

// New creates a new AppError
func New(code string, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, appErr *AppError) *AppError {
	return &AppError{
		Code:    appErr.Code,
		Message: appErr.Message,
		Status:  appErr.Status,
		Details: appErr.Details,
		Err:     err,
	}
}

// WithMessage returns a copy with a custom message
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithError returns a copy wrapping err
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithDetails returns a copy carrying the payload of a fail envelope.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsClientError reports whether the error is rendered as a fail envelope.
func (e *AppError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// Is checks if the error is a specific AppError
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetStatus returns the HTTP status from an error
func GetStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// NotFound builds a 404 failure with a message payload.
func NotFound(message string) *AppError {
	return ErrNotFound.WithMessage(message).WithDetails(map[string]any{"message": message})
}

// Validation builds a 400 failure. Details is usually a field to message map.
func Validation(details any) *AppError {
	return ErrValidation.WithDetails(details)
}

// BadRequest builds a 400 failure with a message payload.
func BadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message).WithDetails(map[string]any{"message": message})
}

// Unauthorized builds a 401 failure with a message payload.
func Unauthorized(message string) *AppError {
	return ErrUnauthorized.WithMessage(message).WithDetails(map[string]any{"message": message})
}

// Forbidden builds a 403 failure with a message payload.
func Forbidden(message string) *AppError {
	return ErrForbidden.WithMessage(message).WithDetails(map[string]any{"message": message})
}

// Conflict builds a 409 failure with a message payload.
func Conflict(message string) *AppError {
	return ErrConflict.WithMessage(message).WithDetails(map[string]any{"message": message})
}
