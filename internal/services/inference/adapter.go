package inference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_inference/pkg/artifact"
)

// ErrNonFinite is returned when a classifier produces NaN or infinite probabilities.
var ErrNonFinite = errors.New("non-finite model output")

// RawPrediction is a classifier output zipped with the classifier's own class order.
type RawPrediction struct {
	Label         string
	Classes       []string
	Probabilities []float64
}

// Confidence is the highest class probability.
func (p RawPrediction) Confidence() float64 {
	var best float64
	for _, v := range p.Probabilities {
		if v > best {
			best = v
		}
	}
	return best
}

// Invoke scales vec as a single row and runs the classifier on it.
// The label comes from the classifier when it implements artifact.Labeler,
// otherwise it is the argmax of the probabilities (first class on ties).
func Invoke(ctx context.Context, scaler artifact.Scaler, clf artifact.Classifier, vec entities.FeatureVector) (RawPrediction, error) {
	x := [][]float64{append([]float64(nil), vec...)}

	scaled, err := scaler.Transform(ctx, x)
	if err != nil {
		return RawPrediction{}, fmt.Errorf("scale: %w", err)
	}
	probs, err := clf.PredictProba(ctx, scaled)
	if err != nil {
		return RawPrediction{}, fmt.Errorf("predict_proba: %w", err)
	}
	classes := clf.Classes()
	if len(classes) == 0 || len(probs) != 1 || len(probs[0]) != len(classes) {
		return RawPrediction{}, fmt.Errorf("%w: got %d probability rows for 1 input, %d classes",
			artifact.ErrShape, len(probs), len(classes))
	}

	for i, p := range probs[0] {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return RawPrediction{}, fmt.Errorf("%w: probability for class %q is %v", ErrNonFinite, classes[i], p)
		}
	}

	out := RawPrediction{Classes: classes, Probabilities: probs[0]}
	if l, ok := clf.(artifact.Labeler); ok {
		labels, err := l.Predict(ctx, scaled)
		if err != nil {
			return RawPrediction{}, fmt.Errorf("predict: %w", err)
		}
		if len(labels) != 1 {
			return RawPrediction{}, fmt.Errorf("%w: got %d labels for 1 input", artifact.ErrShape, len(labels))
		}
		out.Label = labels[0]
		return out, nil
	}
	out.Label = classes[argmax(out.Probabilities)]
	return out, nil
}

func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}
