package inference

import (
	"context"
	"sync"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_inference/internal/model/messages"
	"github.com/LeonardoBeccarini/agri_inference/pkg/artifact"
)

// fakeClassifier returns the same probability row for every input.
type fakeClassifier struct {
	classes []string
	probs   []float64
	err     error
	panics  bool
	seen    [][]float64
}

func (f *fakeClassifier) Classes() []string { return f.classes }

func (f *fakeClassifier) PredictProba(_ context.Context, x [][]float64) ([][]float64, error) {
	if f.panics {
		panic("corrupt artifact")
	}
	f.seen = append(f.seen, x...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = f.probs
	}
	return out, nil
}

// labelingClassifier also implements artifact.Labeler.
type labelingClassifier struct {
	fakeClassifier
	label string
}

func (l *labelingClassifier) Predict(_ context.Context, x [][]float64) ([]string, error) {
	out := make([]string, len(x))
	for i := range out {
		out[i] = l.label
	}
	return out, nil
}

var fertilityFeatures = entities.FeatureSpec{"N", "P", "K", "pH", "EC", "OC", "S", "Zn", "Fe", "Cu", "Mn", "B"}

func fertilityModel(probs ...float64) *Model {
	return &Model{
		Kind:       KindFertility,
		Features:   fertilityFeatures,
		Scaler:     artifact.IdentityScaler{},
		Classifier: &fakeClassifier{classes: []string{"0", "1", "2"}, probs: probs},
	}
}

func irrigationModel(probs ...float64) *Model {
	return &Model{
		Kind:       KindIrrigation,
		Features:   entities.FeatureSpec{"sensor_0", "sensor_1", "sensor_2"},
		Scaler:     artifact.IdentityScaler{},
		Classifier: &fakeClassifier{classes: []string{"0", "1"}, probs: probs},
	}
}

var cropClasses = []string{"apple", "banana", "chickpea", "coffee", "kidney beans", "maize", "rice"}

func cropModel(probs ...float64) *Model {
	return &Model{
		Kind:       KindCrop,
		Features:   entities.CropFeatures,
		Scaler:     artifact.IdentityScaler{},
		Classifier: &fakeClassifier{classes: cropClasses, probs: probs},
	}
}

func fertilityInput() map[string]any {
	return map[string]any{
		"N": 500.0, "P": 30.0, "K": 300.0, "pH": 7.1, "EC": 0.6, "OC": 0.8,
		"S": 10.0, "Zn": 0.3, "Fe": 0.9, "Cu": 1.2, "Mn": 5.0, "B": 0.4,
	}
}

func cropInput() map[string]any {
	return map[string]any{
		"N": 90.0, "P": 42.0, "K": 43.0, "temperature": 20.8,
		"humidity": 82.0, "ph": 6.5, "rainfall": 202.9,
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []messages.PredictionEvent
}

func (r *recordingSink) Record(_ context.Context, evt messages.PredictionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}
