package inference

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
)

func TestParseHistoryDefaultsAndBounds(t *testing.T) {
	p, err := parseHistory(httptest.NewRequest(http.MethodGet, "/predictions/recent", nil))
	require.NoError(t, err)
	assert.Equal(t, historyParams{Minutes: 1440, Limit: 20, TimeoutMS: 2000}, p)

	p, err = parseHistory(httptest.NewRequest(http.MethodGet, "/predictions/recent?limit=9999&minutes=0&model=Crops&timeout_ms=x", nil))
	require.NoError(t, err)
	assert.Equal(t, historyParams{Model: "crop", Minutes: 1, Limit: 500, TimeoutMS: 2000}, p)

	_, err = parseHistory(httptest.NewRequest(http.MethodGet, "/predictions/recent?model=yield", nil))
	assert.Equal(t, BadRequest, CanonicalCode(err))
}

func TestBuildHistoryFlux(t *testing.T) {
	q := buildHistoryFlux("predictions", historyParams{Model: "irrigation", Minutes: 60, Limit: 5})
	assert.Contains(t, q, `from(bucket: "predictions")`)
	assert.Contains(t, q, `range(start: -60m)`)
	assert.Contains(t, q, `r._measurement == "model_prediction" and r.model == "irrigation"`)
	assert.Contains(t, q, `limit(n:5)`)

	all := buildHistoryFlux("predictions", historyParams{Minutes: 60, Limit: 5})
	assert.NotContains(t, all, "r.model")
}

func TestHistoryRejectsUnknownModel(t *testing.T) {
	h := NewHistoryHandler(nil, "predictions", logging.NewTestLogger())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/recent?model=yield", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
