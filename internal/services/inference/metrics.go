package inference

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "agri_inference"

// PredictionLatencyBuckets covers in-process models (sub-millisecond) up to remote ones (seconds).
var PredictionLatencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0,
}

// Metrics groups the collectors of the service. A nil *Metrics records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	predictions *prometheus.CounterVec
	loaded      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "request_total",
			Help:      "Counter of prediction requests broken out by model.",
		}, []string{"model"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "request_error_total",
			Help:      "Counter of failed prediction requests broken out by model and error code.",
		}, []string{"model", "error_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: metricsSubsystem,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent validating, invoking and assembling a prediction.",
			Buckets:   PredictionLatencyBuckets,
		}, []string{"model"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "prediction_total",
			Help:      "Counter of successful predictions broken out by model and predicted label.",
		}, []string{"model", "label"}),
		loaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: metricsSubsystem,
			Name:      "model_loaded",
			Help:      "1 when the model artifact is loaded, 0 otherwise.",
		}, []string{"model"}),
	}
	reg.MustRegister(m.requests, m.errors, m.latency, m.predictions, m.loaded)
	return m
}

func (m *Metrics) RecordRequest(k Kind) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(k)).Inc()
}

func (m *Metrics) RecordError(k Kind, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(string(k), code).Inc()
}

func (m *Metrics) RecordPrediction(k Kind, label string, d time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(string(k), label).Inc()
	m.latency.WithLabelValues(string(k)).Observe(d.Seconds())
}

func (m *Metrics) SetModelStatus(status map[Kind]bool) {
	if m == nil {
		return
	}
	for k, ok := range status {
		v := 0.0
		if ok {
			v = 1
		}
		m.loaded.WithLabelValues(string(k)).Set(v)
	}
}
