package errors

import (
	"fmt"
	"net/http"
)

// Error codes
const (
	// 4xx Client Errors
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeUnprocessable = "UNPROCESSABLE_INPUT"

	// 5xx Server Errors
	CodeInternal        = "INTERNAL_ERROR"
	CodeBadUpstreamData = "BAD_UPSTREAM_DATA"
	CodeUpstreamError   = "UPSTREAM_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Error constructors

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// Unprocessable marks a syntactically valid request the service refuses to
// act on, e.g. a proposal whose signature fails verification.
func Unprocessable(message string) *AppError {
	return &AppError{
		Code:       CodeUnprocessable,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// BadUpstreamData marks an inconsistency in data served by a trusted
// upstream. The client did nothing wrong, so it maps to a gateway failure.
func BadUpstreamData(message string) *AppError {
	return &AppError{
		Code:       CodeBadUpstreamData,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

func UpstreamError(err error) *AppError {
	return &AppError{
		Code:       CodeUpstreamError,
		Message:    "Upstream service request failed",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}
