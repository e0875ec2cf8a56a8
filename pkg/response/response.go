// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Error       string               `json:"error"`
	Message     string               `json:"message,omitempty"`
	FieldErrors []service.FieldError `json:"field_errors,omitempty"`
	Violations  []stats.Violation    `json:"violations,omitempty"`
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
// Messages of user-correctable errors are passed through; internal ones are not.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_input",
			Message:     "one or more fields are invalid",
			FieldErrors: service.FieldErrors(err),
		}
	}

	if errors.Is(err, extractor.ErrExtractionFailure) {
		status := http.StatusUnprocessableEntity
		var fe *extractor.FailureError
		if errors.As(err, &fe) && fe.Upstream() {
			status = http.StatusBadGateway
		}
		return status, ErrorPayload{Error: "extraction_failed", Message: err.Error()}
	}

	switch {
	case errors.Is(err, stats.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorPayload{
			Error:      "validation_failed",
			Message:    err.Error(),
			Violations: stats.Violations(err),
		}
	case errors.Is(err, service.ErrPlayerNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "player_not_found", Message: err.Error()}
	case errors.Is(err, service.ErrEmptyName):
		return http.StatusBadRequest, ErrorPayload{Error: "empty_name", Message: err.Error()}
	case errors.Is(err, service.ErrInvalidMerge):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_merge", Message: err.Error()}
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, ErrorPayload{Error: "unauthorized", Message: err.Error()}
	case errors.Is(err, service.ErrIngestionFailed):
		return http.StatusInternalServerError, ErrorPayload{Error: "ingestion_failed", Message: "stat lines could not be saved; nothing was stored"}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "not_found"}
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, ErrorPayload{Error: "already_exists"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorPayload{Error: "conflict"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorPayload{Error: "timeout"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error"}
	}
}

// WriteError writes an error response and aborts the context.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
