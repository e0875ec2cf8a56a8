package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
)

// APIV1Prefix is the canonical base path for public HTTP API v1.
// Keep a single source of truth to avoid path drift across handlers and tests.
const APIV1Prefix = "/api/v1"

// dateLayout is the wire format of game dates.
const dateLayout = "2006-01-02"

// uuidParam parses a path parameter, reporting a field error under its name.
func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, invalid(name, "must be a valid UUID")
	}
	return id, nil
}

// optionalUUIDQuery parses an optional query parameter; empty means nil.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	return optionalUUID(name, c.Query(name))
}

func optionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid(field, "must be a valid UUID")
	}
	return &id, nil
}

func pageQuery(c *gin.Context) (repository.Page, error) {
	var p repository.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		return repository.Page{}, invalid("limit", "limit and offset must be integers")
	}
	return p, nil
}

// invalid builds a single-field ErrInvalidInput error for request parsing failures.
func invalid(field, msg string) error {
	return service.NewInvalidInputError([]service.FieldError{{Field: field, Message: msg}})
}
