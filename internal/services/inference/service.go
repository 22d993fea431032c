package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_inference/internal/model/messages"
	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
)

const healthMessage = "ML inference API is running"

// Service runs the validate, invoke, recommend, assemble pipeline for each model.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	registry *Registry
	sink     Sink
	metrics  *Metrics
	logger   logr.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithSink(s Sink) Option { return func(svc *Service) { svc.sink = s } }

func WithMetrics(m *Metrics) Option { return func(svc *Service) { svc.metrics = m } }

func WithLogger(l logr.Logger) Option { return func(svc *Service) { svc.logger = l } }

func NewService(registry *Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		logger:   logr.Discard(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.metrics.SetModelStatus(registry.Status())
	return s
}

func (s *Service) Registry() *Registry { return s.registry }

// PredictFertility classifies soil fertility and attaches advice and the N/P/K analysis.
func (s *Service) PredictFertility(ctx context.Context, input map[string]any) (*FertilityResponse, error) {
	var resp *FertilityResponse
	err := s.run(ctx, KindFertility, input, func(m *Model, vec entities.FeatureVector, raw RawPrediction) (*messages.PredictionEvent, error) {
		r, err := assembleFertility(m.Features, vec, raw)
		if err != nil {
			return nil, err
		}
		resp = r
		return &messages.PredictionEvent{
			Label:      string(r.Prediction),
			Confidence: r.Confidence,
			Tier:       r.Recommendation.Priority,
			Inputs:     r.InputValues,
		}, nil
	})
	return resp, err
}

// PredictIrrigation decides whether irrigation is needed and how urgently.
func (s *Service) PredictIrrigation(ctx context.Context, input map[string]any) (*IrrigationResponse, error) {
	var resp *IrrigationResponse
	err := s.run(ctx, KindIrrigation, input, func(m *Model, vec entities.FeatureVector, raw RawPrediction) (*messages.PredictionEvent, error) {
		r, err := assembleIrrigation(vec, raw)
		if err != nil {
			return nil, err
		}
		resp = r
		return &messages.PredictionEvent{
			Label:      fmt.Sprintf("%t", resp.IrrigationNeeded),
			Confidence: resp.Confidence,
			Tier:       string(resp.Recommendation.Urgency),
			Inputs:     zipInputs(m.Features, vec),
		}, nil
	})
	return resp, err
}

// RecommendCrops ranks the crops best suited to the given conditions.
func (s *Service) RecommendCrops(ctx context.Context, input map[string]any) (*CropResponse, error) {
	var resp *CropResponse
	err := s.run(ctx, KindCrop, input, func(m *Model, vec entities.FeatureVector, raw RawPrediction) (*messages.PredictionEvent, error) {
		r, err := assembleCrops(vec, raw)
		if err != nil {
			return nil, err
		}
		resp = r
		evt := &messages.PredictionEvent{Inputs: zipInputs(m.Features, vec)}
		if len(r.Recommendations) > 0 {
			top := r.Recommendations[0]
			evt.Label, evt.Confidence, evt.Tier = top.Crop, top.Confidence, string(top.Suitability)
		}
		return evt, nil
	})
	return resp, err
}

// Health reports which models are loaded. It never fails.
func (s *Service) Health() HealthResponse {
	return HealthResponse{
		Status:          "healthy",
		Message:         healthMessage,
		Models:          s.registry.Status(),
		AllModelsLoaded: s.registry.AllLoaded(),
	}
}

type assembleFunc func(m *Model, vec entities.FeatureVector, raw RawPrediction) (*messages.PredictionEvent, error)

func (s *Service) run(ctx context.Context, k Kind, input map[string]any, assemble assembleFunc) (err error) {
	start := s.now()
	log, lerr := logr.FromContext(ctx)
	if lerr != nil {
		log = s.logger
	}
	log = log.WithValues("model", k)
	s.metrics.RecordRequest(k)

	defer func() {
		if r := recover(); r != nil {
			err = errInternal("prediction failed", fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			code := CanonicalCode(err)
			s.metrics.RecordError(k, code)
			if code == Internal || code == Unknown {
				log.Error(err, "Prediction failed")
			} else {
				log.V(logging.VERBOSE).Info("Prediction rejected", "code", code, "reason", err.Error())
			}
		}
	}()

	m, ok := s.registry.Get(k)
	if !ok {
		return errModelUnavailable(k)
	}
	vec, err := ParseFeatures(m.Features, input)
	if err != nil {
		return err
	}
	raw, err := Invoke(ctx, m.Scaler, m.Classifier, vec)
	if err != nil {
		return errInternal("prediction failed", err)
	}
	evt, err := assemble(m, vec, raw)
	if err != nil {
		return errInternal("building response failed", err)
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordPrediction(k, evt.Label, elapsed)
	log.V(logging.DEBUG).Info("Prediction", "label", evt.Label, "confidence", evt.Confidence, "tier", evt.Tier)

	if s.sink != nil {
		evt.ID = s.newID()
		evt.Model = string(k)
		evt.LatencyMs = float64(elapsed.Microseconds()) / 1000
		evt.Timestamp = start.UTC()
		s.sink.Record(ctx, *evt)
	}
	return nil
}
