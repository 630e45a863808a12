package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Constructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantMsg    string
		wantDetail interface{}
	}{
		{
			name:       "report not found",
			err:        ErrReportNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "REPORT_NOT_FOUND",
			wantMsg:    "Analysis report not available",
		},
		{
			name:       "invalid parameter",
			err:        InvalidParameter("limit", "limit must be a valid integer"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PARAMETER",
			wantMsg:    "Invalid parameter value",
			wantDetail: ValidationError{Field: "limit", Message: "limit must be a valid integer"},
		},
		{
			name:       "generic not found",
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "Resource not found",
		},
		{
			name:       "service unavailable",
			err:        ErrServiceUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "SERVICE_UNAVAILABLE",
			wantMsg:    "Service temporarily unavailable",
		},
		{
			name:       "invalid request",
			err:        InvalidRequestWithError(errors.New("bad query")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
			wantMsg:    "Invalid request format",
			wantDetail: "bad query",
		},
		{
			name:       "field validation",
			err:        ErrValidation("metric", "must be one of retention conversion roi"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantMsg:    "Request validation failed",
			wantDetail: ValidationError{Field: "metric", Message: "must be one of retention conversion roi"},
		},
		{
			name:       "resource not found",
			err:        NotFoundError("channel"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "channel not found",
			wantDetail: "channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.Equal(t, tt.wantDetail, tt.err.Details)
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "sort_by", Message: "sort_by must be one of audience frequency monetary recency"},
		{Field: "limit", Message: "limit must be at most 1000"},
	})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)

	data, jsonErr := json.Marshal(err)
	require.NoError(t, jsonErr)
	assert.JSONEq(t, `{
		"status_code": 400,
		"error_code": "VALIDATION_FAILED",
		"message": "Request validation failed",
		"details": {"errors": [
			{"field": "sort_by", "message": "sort_by must be one of audience frequency monetary recency"},
			{"field": "limit", "message": "limit must be at most 1000"}
		]}
	}`, string(data))
}

func TestAPIError_Render(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)

	require.NoError(t, render.Render(rec, req, New(http.StatusConflict, "CONFLICT", "busy")))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body["error_code"])
	assert.NotContains(t, body, "details")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeReportAbsent, "Not Found", "", "/api/v1/dashboard").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(problem)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "/errors/report/not-found",
		"title": "Not Found",
		"status": 404,
		"instance": "/api/v1/dashboard",
		"trace_id": "abc"
	}`, string(data))
}
