package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"civsim-server/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponses(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	cases := []struct {
		err     error
		status  int
		message string
	}{
		{errors.NotFoundf("simulation %s not found", "x"), http.StatusNotFound, "simulation x not found"},
		{errors.Validation("steps must be positive"), http.StatusBadRequest, "steps must be positive"},
		{errors.Conflictf("civilization %s already exists", "civ_1"), http.StatusConflict, "civilization civ_1 already exists"},
		{errors.Unauthorized("authentication required"), http.StatusUnauthorized, "authentication required"},
		{errors.Forbidden("operator access required"), http.StatusForbidden, "operator access required"},
		{errors.WrapExternal("failed to persist simulation", fmt.Errorf("dial tcp")), http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)},
		{fmt.Errorf("boom"), http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), logger, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, tc.message, body.Message)
		assert.Equal(t, tc.status, body.Code)
	}
}

func TestErrorTypeSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to found civ_1: %w", errors.NotFound("origin star missing"))
	assert.True(t, errors.IsType(wrapped, errors.ErrorTypeNotFound))
	assert.Equal(t, errors.ErrorTypeInternal, errors.GetType(fmt.Errorf("plain")))
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]int{"steps": 10})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"steps":10}`, rec.Body.String())
}

func TestSuccessWithUnencodableBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]float64{"tech_level": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, string(errors.ErrorTypeInternal), body.Error)
}
