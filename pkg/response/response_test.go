package response_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
	"github.com/maxviazov/scorebook-stats-service/pkg/response"
)

// fakeInvalid mimics service aggregated validation error to test mapping without reaching into internals.
type fakeInvalid struct{ fe []service.FieldError }

func (f *fakeInvalid) Error() string                { return service.ErrInvalidInput.Error() }
func (f *fakeInvalid) Unwrap() error                { return service.ErrInvalidInput }
func (f *fakeInvalid) Fields() []service.FieldError { return f.fe }

func TestMapError(t *testing.T) {
	validation := stats.Validate(model.StatRecord{PA: 1, AB: 1, H: 1})
	require.Error(t, validation)

	cases := []struct {
		name     string
		in       error
		wantCode int
		wantErr  string
	}{
		{"invalid_input", &fakeInvalid{fe: []service.FieldError{{Field: "name", Message: "bad"}}}, 400, "invalid_input"},
		{"extraction_model", &extractor.FailureError{Stage: extractor.StageModel, Err: errors.New("503")}, 502, "extraction_failed"},
		{"extraction_decode", &extractor.FailureError{Stage: extractor.StageDecode, Err: errors.New("not json")}, 422, "extraction_failed"},
		{"extraction_empty", fmt.Errorf("%w: no stats were found", service.ErrExtractionFailure), 422, "extraction_failed"},
		{"validation", fmt.Errorf("line 1: %w", validation), 422, "validation_failed"},
		{"player_not_found", fmt.Errorf("%w: x", service.ErrPlayerNotFound), 404, "player_not_found"},
		{"empty_name", service.ErrEmptyName, 400, "empty_name"},
		{"invalid_merge", service.ErrInvalidMerge, 400, "invalid_merge"},
		{"unauthorized", service.ErrUnauthorized, 403, "unauthorized"},
		{"ingestion_failed", fmt.Errorf("%w: insert: %w", service.ErrIngestionFailed, repository.ErrConflict), 500, "ingestion_failed"},
		{"not_found", repository.ErrNotFound, 404, "not_found"},
		{"already_exists", repository.ErrAlreadyExists, 409, "already_exists"},
		{"conflict", repository.ErrConflict, 409, "conflict"},
		{"timeout", context.DeadlineExceeded, 504, "timeout"},
		{"internal", errors.New("boom"), 500, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := response.MapError(tc.in)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, payload.Error)
			switch tc.wantErr {
			case "invalid_input":
				assert.NotEmpty(t, payload.FieldErrors)
			case "validation_failed":
				assert.NotEmpty(t, payload.Violations)
			case "internal_error":
				assert.Empty(t, payload.Message, "internal details stay private")
			}
		})
	}
}

func TestWriteError_Aborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	response.WriteError(c, service.ErrUnauthorized)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"not authorized for this team"}`, w.Body.String())
}
