package artifact

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearMultinomialSumsToOne(t *testing.T) {
	c, err := NewLinearClassifier(
		[]string{"0", "1", "2"},
		[][]float64{{1, 0}, {0, 1}, {-1, -1}},
		[]float64{0, 0, 0.5},
		"", 2)
	require.NoError(t, err)

	rows := [][]float64{{0, 0}, {3, -2}, {-5, 8}, {400, -400}}
	probs, err := c.PredictProba(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, probs, len(rows))

	for _, row := range probs {
		require.Len(t, row, 3)
		var sum float64
		for _, p := range row {
			assert.False(t, math.IsNaN(p))
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
	// x=(3,-2): class "0" has the largest score
	assert.Greater(t, probs[1][0], probs[1][1])
	assert.Greater(t, probs[1][0], probs[1][2])
}

func TestLinearBinaryUsesSigmoid(t *testing.T) {
	c, err := NewLinearClassifier([]string{"0", "1"}, [][]float64{{2}}, []float64{-1}, "", 1)
	require.NoError(t, err)

	probs, err := c.PredictProba(context.Background(), [][]float64{{0.5}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, probs[0][0], 1e-12)
	assert.InDelta(t, 0.5, probs[0][1], 1e-12)

	probs, err = c.PredictProba(context.Background(), [][]float64{{3}})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-5)), probs[0][1], 1e-12)
}

func TestLinearOneVsRestNormalises(t *testing.T) {
	c, err := NewLinearClassifier([]string{"a", "b", "c"}, [][]float64{{1}, {0}, {-1}}, []float64{0, 0, 0}, "ovr", 1)
	require.NoError(t, err)

	probs, err := c.PredictProba(context.Background(), [][]float64{{0}})
	require.NoError(t, err)
	for _, p := range probs[0] {
		assert.InDelta(t, 1.0/3, p, 1e-12)
	}
}

func TestLinearValidatesShape(t *testing.T) {
	_, err := NewLinearClassifier([]string{"0", "1", "2"}, [][]float64{{1}}, []float64{0}, "", 1)
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewLinearClassifier([]string{"0", "1"}, [][]float64{{1, 2}}, []float64{0}, "", 3)
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewLinearClassifier([]string{"0", "1"}, [][]float64{{1}}, []float64{0}, "crammer", 1)
	assert.Error(t, err)
}
