package inference

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/messages"
)

// PredictionMeasurement is the InfluxDB measurement holding prediction events.
const PredictionMeasurement = "model_prediction"

// EventToPoint maps a prediction to a point: model, label and tier as tags,
// confidence, latency and every input value as fields (inputs prefixed with "in_").
func EventToPoint(evt messages.PredictionEvent) *write.Point {
	tags := map[string]string{
		"model": evt.Model,
		"label": evt.Label,
	}
	if evt.Tier != "" {
		tags["tier"] = evt.Tier
	}

	fields := map[string]interface{}{
		"confidence": evt.Confidence,
		"latency_ms": evt.LatencyMs,
		"id":         evt.ID,
	}
	for k, v := range evt.Inputs {
		fields["in_"+k] = v
	}
	return influxdb2.NewPoint(PredictionMeasurement, tags, fields, evt.Timestamp)
}
