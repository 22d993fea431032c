package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// RemoteConfig points a classifier at an HTTP model server exposing POST /predict_proba.
type RemoteConfig struct {
	Name             string
	URL              string
	Classes          []string
	Timeout          time.Duration
	BreakerFailures  int
	BreakerOpenFor   time.Duration
	BreakerResetFreq time.Duration
	Client           *http.Client // opzionale, per i test
}

// RemoteClassifier delegates PredictProba to a model server, behind a circuit breaker.
// Calls are never retried: a failure is reported to the caller as is.
type RemoteClassifier struct {
	name     string
	endpoint string
	classes  []string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

type remoteRequest struct {
	Instances [][]float64 `json:"instances"`
}

type remoteResponse struct {
	Classes       []string    `json:"classes,omitempty"`
	Probabilities [][]float64 `json:"probabilities"`
}

func NewRemoteClassifier(cfg RemoteConfig) (*RemoteClassifier, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("remote classifier: url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	fails := uint32(cfg.BreakerFailures)
	return &RemoteClassifier{
		name:     cfg.Name,
		endpoint: base + "/predict_proba",
		classes:  append([]string(nil), cfg.Classes...),
		client:   client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "model-" + cfg.Name,
			Interval: cfg.BreakerResetFreq,
			Timeout:  cfg.BreakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= fails
			},
		}),
	}, nil
}

func (c *RemoteClassifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

// State exposes the breaker state, for logs and readiness.
func (c *RemoteClassifier) State() gobreaker.State {
	return c.breaker.State()
}

func (c *RemoteClassifier) PredictProba(ctx context.Context, x [][]float64) ([][]float64, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		return c.call(ctx, x)
	})
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", c.name, err)
	}
	return res.([][]float64), nil
}

func (c *RemoteClassifier) call(ctx context.Context, x [][]float64) ([][]float64, error) {
	body, err := json.Marshal(remoteRequest{Instances: x})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if len(out.Classes) > 0 && !sameClasses(out.Classes, c.classes) {
		return nil, fmt.Errorf("%w: server classes %v, manifest classes %v", ErrShape, out.Classes, c.classes)
	}
	if len(out.Probabilities) != len(x) {
		return nil, fmt.Errorf("%w: %d probability rows for %d instances", ErrShape, len(out.Probabilities), len(x))
	}
	for i, row := range out.Probabilities {
		if len(row) != len(c.classes) {
			return nil, fmt.Errorf("%w: row %d has %d probabilities for %d classes", ErrShape, i, len(row), len(c.classes))
		}
	}
	return out.Probabilities, nil
}

func sameClasses(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
