package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Admin gate
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidAdminKey       = errors.New("admin credentials required")
	ErrAdminNotConfigured    = errors.New("admin secret is not configured")
	ErrSessionsNotConfigured = errors.New("staff sessions are not configured")

	// Ticket validation
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrBodyRequired       = errors.New("body is required")
	ErrPlayerIDRequired   = errors.New("player identifier is required")
	ErrTopicIDRequired    = errors.New("topic id is required")
	ErrInvalidStatus      = errors.New("invalid ticket status")
	ErrEmptyPatch         = errors.New("at least one field must be provided for update")
	ErrMessageRequired    = errors.New("message body is required")
	ErrInvalidAuthorType  = errors.New("invalid message author type")
	ErrInvalidWindow      = errors.New("days must be an integer between 1 and 90")
	ErrTicketIDRequired   = errors.New("ticket ID is required")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrTopicExists        = errors.New("topic already exists")
	ErrTopicNameRequired  = errors.New("topic name is required")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length of 256 characters")

	// Staff settings
	ErrEmptySettingsUpdate = errors.New("provide theme and/or site settings to update")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("resource conflict")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewConflictError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "CONFLICT",
		StatusCode: 409,
	}
}

func NewValidationError(err error, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		StatusCode: 400,
		Details:    details,
	}
}

// NewUnconfiguredError reports server-side configuration that an endpoint
// depends on but which is missing.
func NewUnconfiguredError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_CONFIGURED",
		StatusCode: 500,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
