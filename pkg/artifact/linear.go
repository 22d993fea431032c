package artifact

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// LinearClassifier is a fitted logistic regression: one coefficient row per class
// (or a single row for the binary case).
type LinearClassifier struct {
	classes   []string
	coef      [][]float64
	intercept []float64
	ovr       bool
}

func NewLinearClassifier(classes []string, coef [][]float64, intercept []float64, multiClass string, width int) (*LinearClassifier, error) {
	rows := len(classes)
	if len(classes) == 2 && len(coef) == 1 {
		rows = 1
	}
	if len(coef) != rows || len(intercept) != rows {
		return nil, fmt.Errorf("%w: linear classifier has %d coef rows and %d intercepts for %d classes",
			ErrShape, len(coef), len(intercept), len(classes))
	}
	c := &LinearClassifier{
		classes:   append([]string(nil), classes...),
		coef:      make([][]float64, rows),
		intercept: append([]float64(nil), intercept...),
	}
	for i, row := range coef {
		if len(row) != width {
			return nil, fmt.Errorf("%w: coef row %d has %d weights for %d features", ErrShape, i, len(row), width)
		}
		c.coef[i] = append([]float64(nil), row...)
	}
	switch strings.ToLower(strings.TrimSpace(multiClass)) {
	case "", "multinomial", "auto":
	case "ovr":
		c.ovr = true
	default:
		return nil, fmt.Errorf("unknown multi_class %q", multiClass)
	}
	return c, nil
}

func (c *LinearClassifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

func (c *LinearClassifier) PredictProba(_ context.Context, x [][]float64) ([][]float64, error) {
	if err := checkWidth(x, len(c.coef[0])); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		scores := make([]float64, len(c.coef))
		for k, w := range c.coef {
			scores[k] = dot(w, row) + c.intercept[k]
		}
		switch {
		case len(scores) == 1:
			p := sigmoid(scores[0])
			out[i] = []float64{1 - p, p}
		case c.ovr:
			out[i] = normalize(mapSlice(scores, sigmoid))
		default:
			out[i] = softmax(scores)
		}
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		maxZ = math.Max(maxZ, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// normalize scales p to sum to 1; an all-zero row becomes uniform.
func normalize(p []float64) []float64 {
	var sum float64
	for _, v := range p {
		sum += v
	}
	out := make([]float64, len(p))
	for i, v := range p {
		if sum == 0 {
			out[i] = 1 / float64(len(p))
			continue
		}
		out[i] = v / sum
	}
	return out
}

func mapSlice(in []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
