package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/gamemod/support-desk/internal/adapters/primary/http/middleware"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusBadRequest, err)
		WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, err)
		WriteJSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Error(),
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	statusCode, response := mapDomainError(err)
	h.logError(r, statusCode, err)
	WriteJSON(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Admin gate
	case errors.Is(err, apperrors.ErrInvalidAdminKey),
		errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Staff credentials required",
			Code:  "UNAUTHORIZED",
		}
	case errors.Is(err, apperrors.ErrAdminNotConfigured):
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Admin password is not configured",
			Code:  "NOT_CONFIGURED",
		}
	case errors.Is(err, apperrors.ErrSessionsNotConfigured):
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Staff sessions are not configured",
			Code:  "NOT_CONFIGURED",
		}

	// References and lookups
	case errors.Is(err, apperrors.ErrTopicNotFound):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Topic not found",
			Code:  "TOPIC_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Ticket not found",
			Code:  "TICKET_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Resource not found",
			Code:  "NOT_FOUND",
		}

	// Conflicts
	case errors.Is(err, apperrors.ErrTopicExists):
		return http.StatusConflict, ErrorResponse{
			Error: "Topic already exists",
			Code:  "TOPIC_EXISTS",
		}

	// Validation
	case errors.Is(err, apperrors.ErrEmptyPatch):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Provide at least one field to update.",
			Code:  "VALIDATION_ERROR",
		}
	case errors.Is(err, apperrors.ErrEmptySettingsUpdate):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Provide theme and/or site settings to update.",
			Code:  "VALIDATION_ERROR",
		}
	case errors.Is(err, apperrors.ErrTitleRequired),
		errors.Is(err, apperrors.ErrBodyRequired),
		errors.Is(err, apperrors.ErrPlayerIDRequired),
		errors.Is(err, apperrors.ErrTopicIDRequired),
		errors.Is(err, apperrors.ErrTicketIDRequired),
		errors.Is(err, apperrors.ErrInvalidStatus),
		errors.Is(err, apperrors.ErrMessageRequired),
		errors.Is(err, apperrors.ErrInvalidAuthorType),
		errors.Is(err, apperrors.ErrInvalidWindow),
		errors.Is(err, apperrors.ErrTopicNameRequired),
		errors.Is(err, apperrors.ErrDescriptionTooLong):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		}

	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	logAttrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	ctx := r.Context()
	switch {
	case statusCode >= 500:
		h.logger.ErrorContext(ctx, "server error", logAttrs...)
	case statusCode >= 400:
		h.logger.WarnContext(ctx, "client error", logAttrs...)
	default:
		h.logger.InfoContext(ctx, "request error", logAttrs...)
	}
}

// HandleError Helper function to handle errors inline in handlers
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
