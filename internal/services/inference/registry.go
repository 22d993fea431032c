package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_inference/pkg/artifact"
	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
)

// Kind identifies one of the served models.
type Kind string

const (
	KindFertility  Kind = "fertility"
	KindIrrigation Kind = "irrigation"
	KindCrop       Kind = "crop"
)

// Kinds lists every served model, in a stable order.
var Kinds = []Kind{KindFertility, KindIrrigation, KindCrop}

func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ParseKind accepts the model names used in topics and configuration.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindFertility, KindIrrigation, KindCrop:
		return k, true
	case "crops":
		return KindCrop, true
	}
	return "", false
}

// Model is a loaded artifact bound to the feature order it expects.
type Model struct {
	Kind       Kind
	Version    string
	Features   entities.FeatureSpec
	Scaler     artifact.Scaler
	Classifier artifact.Classifier
}

// Registry holds the models available to the service. It is built once at startup
// and only read afterwards.
type Registry struct {
	models map[Kind]*Model
}

func NewRegistry(models ...*Model) *Registry {
	r := &Registry{models: make(map[Kind]*Model, len(models))}
	for _, m := range models {
		if m != nil {
			r.models[m.Kind] = m
		}
	}
	return r
}

func (r *Registry) Get(k Kind) (*Model, bool) {
	m, ok := r.models[k]
	return m, ok
}

// Status reports, for every kind, whether its model is loaded.
func (r *Registry) Status() map[Kind]bool {
	out := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		_, out[k] = r.models[k]
	}
	return out
}

func (r *Registry) AllLoaded() bool {
	for _, k := range Kinds {
		if _, ok := r.models[k]; !ok {
			return false
		}
	}
	return true
}

// BindModel checks a loaded artifact against what kind k needs.
func BindModel(k Kind, a *artifact.Model) (*Model, error) {
	spec := entities.FeatureSpec(a.Features)
	switch k {
	case KindCrop:
		if !spec.Equal(entities.CropFeatures) {
			return nil, fmt.Errorf("crop model features %v, want %v", a.Features, entities.CropFeatures)
		}
		spec = entities.CropFeatures
	case KindFertility:
		if len(spec) < 3 {
			return nil, fmt.Errorf("fertility model needs N, P, K as first features, got %v", a.Features)
		}
	case KindIrrigation:
	default:
		return nil, fmt.Errorf("unknown model kind %q", k)
	}
	return &Model{
		Kind:       k,
		Version:    a.Version,
		Features:   spec,
		Scaler:     a.Scaler,
		Classifier: a.Classifier,
	}, nil
}

// LoadRegistry loads every configured manifest concurrently. A model that fails to load
// is left out and the others are still served; the failures are logged together.
func LoadRegistry(ctx context.Context, logger logr.Logger, paths map[Kind]string) *Registry {
	loaded := make([]*Model, len(Kinds))
	errs := make([]error, len(Kinds))
	var g errgroup.Group
	for i, k := range Kinds {
		i, k := i, k
		path := strings.TrimSpace(paths[k])
		if path == "" {
			logger.Info("model not configured", "model", k)
			continue
		}
		g.Go(func() error {
			errs[i] = loadModel(ctx, logger, k, path, &loaded[i])
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error(errors.Join(errs...), "Error loading models, serving the remaining ones")
	}
	return NewRegistry(loaded...)
}

func loadModel(ctx context.Context, logger logr.Logger, k Kind, path string, out **Model) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	a, err := artifact.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	m, err := BindModel(k, a)
	if err != nil {
		return fmt.Errorf("%s: artifact rejected: %w", k, err)
	}
	*out = m
	log := logger.WithValues("model", k, "path", path)
	log.Info("Model loaded", "version", m.Version, "classes", len(m.Classifier.Classes()))
	log.V(logging.VERBOSE).Info("Model features", "features", []string(m.Features))
	return nil
}
