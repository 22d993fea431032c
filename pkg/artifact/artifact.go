// Package artifact loads trained model artifacts (scaler + classifier) described by a
// YAML or JSON manifest, and exposes them behind the Scaler / Classifier contracts.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scaler applies the training-time feature scaling to a matrix of rows.
type Scaler interface {
	Transform(ctx context.Context, x [][]float64) ([][]float64, error)
}

// Classifier returns one probability row per input row, aligned with Classes().
type Classifier interface {
	Classes() []string
	PredictProba(ctx context.Context, x [][]float64) ([][]float64, error)
}

// Labeler is implemented by classifiers whose predicted label is not the argmax of PredictProba.
type Labeler interface {
	Predict(ctx context.Context, x [][]float64) ([]string, error)
}

// ErrShape is returned when an input or artifact has inconsistent dimensions.
var ErrShape = errors.New("artifact: shape mismatch")

type Manifest struct {
	Name       string         `yaml:"name"`
	Version    string         `yaml:"version"`
	Features   []string       `yaml:"features"`
	Scaler     ScalerSpec     `yaml:"scaler"`
	Classifier ClassifierSpec `yaml:"classifier"`
}

type ScalerSpec struct {
	Type  string    `yaml:"type"` // standard | minmax | identity
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
	Min   []float64 `yaml:"min"`
}

type ClassifierSpec struct {
	Type    string   `yaml:"type"` // linear | forest | remote
	Classes []string `yaml:"classes"`

	// linear
	Coef       [][]float64 `yaml:"coef"`
	Intercept  []float64   `yaml:"intercept"`
	MultiClass string      `yaml:"multi_class"` // multinomial (default) | ovr

	// forest
	Trees []TreeSpec `yaml:"trees"`

	// remote
	URL              string        `yaml:"url"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerFailures  int           `yaml:"breaker_failures"`
	BreakerOpenFor   time.Duration `yaml:"breaker_open_for"`
	BreakerResetFreq time.Duration `yaml:"breaker_interval"`
}

// Model is a loaded, validated artifact pair.
type Model struct {
	Name       string
	Version    string
	Features   []string
	Scaler     Scaler
	Classifier Classifier
}

// Load reads and builds the manifest at path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("artifact: %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest. JSON manifests are accepted as well, being valid YAML.
func Parse(data []byte) (*Model, error) {
	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return New(man)
}

// New validates a manifest and builds its scaler and classifier.
func New(man Manifest) (*Model, error) {
	width := len(man.Features)
	if width == 0 {
		return nil, errors.New("manifest lists no features")
	}

	scaler, err := newScaler(man.Scaler, width)
	if err != nil {
		return nil, err
	}
	clf, err := newClassifier(man.Name, man.Classifier, width)
	if err != nil {
		return nil, err
	}
	return &Model{
		Name:       man.Name,
		Version:    man.Version,
		Features:   append([]string(nil), man.Features...),
		Scaler:     scaler,
		Classifier: clf,
	}, nil
}

func newScaler(spec ScalerSpec, width int) (Scaler, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "", "identity", "none":
		return IdentityScaler{}, nil
	case "standard":
		return NewStandardScaler(spec.Mean, spec.Scale, width)
	case "minmax":
		return NewMinMaxScaler(spec.Scale, spec.Min, width)
	default:
		return nil, fmt.Errorf("unknown scaler type %q", spec.Type)
	}
}

func newClassifier(name string, spec ClassifierSpec, width int) (Classifier, error) {
	if len(spec.Classes) < 2 {
		return nil, fmt.Errorf("classifier needs at least 2 classes, got %d", len(spec.Classes))
	}
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "linear", "logistic":
		return NewLinearClassifier(spec.Classes, spec.Coef, spec.Intercept, spec.MultiClass, width)
	case "forest", "tree":
		return NewForestClassifier(spec.Classes, spec.Trees, width)
	case "remote":
		return NewRemoteClassifier(RemoteConfig{
			Name:             name,
			URL:              spec.URL,
			Classes:          spec.Classes,
			Timeout:          spec.Timeout,
			BreakerFailures:  spec.BreakerFailures,
			BreakerOpenFor:   spec.BreakerOpenFor,
			BreakerResetFreq: spec.BreakerResetFreq,
		})
	default:
		return nil, fmt.Errorf("unknown classifier type %q", spec.Type)
	}
}

func checkWidth(x [][]float64, width int) error {
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), width)
		}
	}
	return nil
}
