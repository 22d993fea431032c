package inference

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

var abc = entities.FeatureSpec{"a", "b", "c"}

func TestParseFeaturesKeepsSpecOrder(t *testing.T) {
	vec, err := ParseFeatures(abc, map[string]any{
		"c":     json.Number("3.5"),
		"a":     " 1e1 ",
		"b":     true,
		"extra": "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.FeatureVector{10, 1, 3.5}, vec)
}

func TestParseFeaturesAcceptsGoNumbers(t *testing.T) {
	vec, err := ParseFeatures(abc, map[string]any{"a": 1, "b": int64(2), "c": float32(0.5)})
	require.NoError(t, err)
	assert.Equal(t, entities.FeatureVector{1, 2, 0.5}, vec)
}

func TestParseFeaturesReportsAllMissing(t *testing.T) {
	_, err := ParseFeatures(abc, map[string]any{"b": 1.0, "z": 2.0})
	require.Error(t, err)

	var e Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, BadRequest, e.Code)
	assert.Equal(t, []string{"a", "c"}, e.Missing)
	assert.Equal(t, []string{"b", "z"}, e.Received)
	assert.Equal(t, []string{"a", "b", "c"}, e.Expected)
	assert.Equal(t, "Missing required features: a, c", e.Msg)
}

func TestParseFeaturesInvalidValueFailsFast(t *testing.T) {
	// "c" is missing too, but the invalid "b" is reported alone.
	_, err := ParseFeatures(abc, map[string]any{"a": 1.0, "b": "wet"})

	var e Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, BadRequest, e.Code)
	assert.Equal(t, "b", e.Field)
	assert.Equal(t, "wet", e.Value)
	assert.Empty(t, e.Missing)
	assert.Equal(t, "Invalid value for b: wet", e.Msg)
}

func TestParseFeaturesRejectsNonNumbers(t *testing.T) {
	cases := map[string]any{
		"null":     nil,
		"object":   map[string]any{"v": 1},
		"array":    []any{1.0},
		"empty":    "",
		"nan":      "NaN",
		"infinity": "inf",
		"word":     "dry",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFeatures(entities.FeatureSpec{"x"}, map[string]any{"x": raw})
			require.Error(t, err)
			assert.Equal(t, BadRequest, CanonicalCode(err))
		})
	}
}

func TestParseFeaturesRendersNull(t *testing.T) {
	_, err := ParseFeatures(entities.FeatureSpec{"x"}, map[string]any{"x": nil})
	var e Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "Invalid value for x: null", e.Msg)
}

func TestParseFeaturesEmptyInput(t *testing.T) {
	_, err := ParseFeatures(abc, nil)
	var e Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "No data received", e.Msg)
	assert.Equal(t, BadRequest, e.Code)
}
