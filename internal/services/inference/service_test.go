package inference

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
)

func newTestService(sink Sink, models ...*Model) (*Service, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	opts := []Option{WithMetrics(m), WithLogger(logging.NewTestLogger())}
	if sink != nil {
		opts = append(opts, WithSink(sink))
	}
	svc := NewService(NewRegistry(models...), opts...)
	svc.newID = func() string { return "evt-1" }
	return svc, m
}

func TestPredictFertility(t *testing.T) {
	sink := &recordingSink{}
	svc, metrics := newTestService(sink, fertilityModel(0.05, 0.077, 0.873))

	resp, err := svc.PredictFertility(context.Background(), fertilityInput())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, entities.FertilityHigh, resp.Prediction)
	assert.InDelta(t, 0.873, resp.Confidence, 1e-12)
	assert.Equal(t, "87.3%", resp.ConfidencePercentage)
	assert.Equal(t, 0.05, resp.Probabilities[entities.FertilityLow])
	assert.Equal(t, "Low", resp.Recommendation.Priority)
	assert.Equal(t, entities.FertilityHigh, resp.NutrientAnalysis["N"].Level)
	assert.Equal(t, entities.NutrientSufficient, resp.NutrientAnalysis["K"].Status)
	assert.Equal(t, 7.1, resp.InputValues["pH"])
	assert.Len(t, resp.InputValues, len(fertilityFeatures))

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, "evt-1", evt.ID)
	assert.Equal(t, "fertility", evt.Model)
	assert.Equal(t, "High", evt.Label)
	assert.Equal(t, "Low", evt.Tier)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("fertility")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.predictions.WithLabelValues("fertility", "High")))
}

func TestPredictFertilityScalesInSpecOrder(t *testing.T) {
	m := fertilityModel(1, 0, 0)
	svc, _ := newTestService(nil, m)

	_, err := svc.PredictFertility(context.Background(), fertilityInput())
	require.NoError(t, err)

	clf := m.Classifier.(*fakeClassifier)
	require.Len(t, clf.seen, 1)
	assert.Equal(t, []float64{500, 30, 300, 7.1, 0.6, 0.8, 10, 0.3, 0.9, 1.2, 5, 0.4}, clf.seen[0])
}

func TestPredictFertilityUnknownClass(t *testing.T) {
	m := &Model{
		Kind:       KindFertility,
		Features:   fertilityFeatures,
		Scaler:     fertilityModel().Scaler,
		Classifier: &labelingClassifier{fakeClassifier: fakeClassifier{classes: []string{"0", "1", "2"}, probs: []float64{0.2, 0.3, 0.5}}, label: "7"},
	}
	svc, _ := newTestService(nil, m)

	resp, err := svc.PredictFertility(context.Background(), fertilityInput())
	require.NoError(t, err)
	assert.Equal(t, entities.FertilityUnknown, resp.Prediction)
	assert.Equal(t, "Medium", resp.Recommendation.Priority)
}

func TestPredictIrrigation(t *testing.T) {
	svc, _ := newTestService(nil, irrigationModel(0.1, 0.9))

	resp, err := svc.PredictIrrigation(context.Background(), map[string]any{
		"sensor_0": 10.0, "sensor_1": 15.0, "sensor_2": 20.0,
	})
	require.NoError(t, err)

	assert.True(t, resp.IrrigationNeeded)
	assert.Equal(t, 15.0, resp.AverageMoisture)
	assert.Equal(t, "90.0%", resp.ConfidencePercentage)
	assert.Equal(t, map[string]float64{"sensor1": 10, "sensor2": 15, "sensor3": 20}, resp.SensorReadings)
	assert.Equal(t, entities.UrgencyCritical, resp.Recommendation.Urgency)
}

func TestRecommendCrops(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(sink, cropModel(0.001, 0.004, 0.005, 0.09, 0.2, 0.1, 0.6))

	resp, err := svc.RecommendCrops(context.Background(), cropInput())
	require.NoError(t, err)

	require.Len(t, resp.Recommendations, 4)
	assert.Equal(t, "Rice", resp.Recommendations[0].Crop)
	assert.Equal(t, "Kidney Beans", resp.Recommendations[1].Crop)
	var sum float64
	for _, p := range svc.registry.models[KindCrop].Classifier.(*fakeClassifier).probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	assert.Equal(t, CropConditions{
		Nitrogen: 90, Phosphorus: 42, Potassium: 43, Temperature: 20.8,
		Humidity: 82, PH: 6.5, Rainfall: 202.9,
	}, resp.Conditions)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "Rice", sink.events[0].Label)
	assert.Equal(t, "Excellent", sink.events[0].Tier)
}

func TestModelNotLoaded(t *testing.T) {
	svc, metrics := newTestService(nil, fertilityModel(1, 0, 0))

	_, err := svc.RecommendCrops(context.Background(), cropInput())
	require.Error(t, err)
	assert.Equal(t, ModelUnavailable, CanonicalCode(err))
	assert.Equal(t, "Crop model not loaded", NewErrorBody(err).Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errors.WithLabelValues("crop", ModelUnavailable)))
}

func TestValidationErrorsSkipInference(t *testing.T) {
	m := cropModel(1, 0, 0, 0, 0, 0, 0)
	svc, _ := newTestService(nil, m)

	_, err := svc.RecommendCrops(context.Background(), map[string]any{"N": 1.0})
	assert.Equal(t, BadRequest, CanonicalCode(err))
	assert.Empty(t, m.Classifier.(*fakeClassifier).seen)
}

func TestArtifactFailuresAreInternal(t *testing.T) {
	m := irrigationModel()
	m.Classifier.(*fakeClassifier).err = errors.New("model server down")
	svc, _ := newTestService(nil, m)

	_, err := svc.PredictIrrigation(context.Background(), map[string]any{"sensor_0": 1.0, "sensor_1": 1.0, "sensor_2": 1.0})
	assert.Equal(t, Internal, CanonicalCode(err))
	assert.Contains(t, NewErrorBody(err).Error, "model server down")
}

func TestPanicsAreInternal(t *testing.T) {
	m := irrigationModel()
	m.Classifier.(*fakeClassifier).panics = true
	svc, _ := newTestService(nil, m)

	_, err := svc.PredictIrrigation(context.Background(), map[string]any{"sensor_0": 1.0, "sensor_1": 1.0, "sensor_2": 1.0})
	assert.Equal(t, Internal, CanonicalCode(err))
}

func TestHealth(t *testing.T) {
	svc, _ := newTestService(nil, fertilityModel(1, 0, 0), irrigationModel(1, 0), cropModel(1, 0, 0, 0, 0, 0, 0))
	h := svc.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.AllModelsLoaded)
	assert.Equal(t, map[Kind]bool{KindFertility: true, KindIrrigation: true, KindCrop: true}, h.Models)

	partial, _ := newTestService(nil, cropModel(1, 0, 0, 0, 0, 0, 0))
	h = partial.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.False(t, h.AllModelsLoaded)
	assert.False(t, h.Models[KindFertility])
}

func TestEventLatency(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(sink, irrigationModel(0.8, 0.2))
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 3 * time.Millisecond)
	}

	_, err := svc.PredictIrrigation(context.Background(), map[string]any{"sensor_0": 80.0, "sensor_1": 75.0, "sensor_2": 90.0})
	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, base, sink.events[0].Timestamp)
	assert.False(t, math.IsNaN(sink.events[0].LatencyMs))
	assert.Equal(t, 3.0, sink.events[0].LatencyMs)
	assert.Equal(t, "false", sink.events[0].Label)
	assert.Equal(t, "None", sink.events[0].Tier)
}
