package messages

import "time"

// PredictionEvent is emitted after every successful prediction, to MQTT and/or InfluxDB.
type PredictionEvent struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Tier       string             `json:"tier,omitempty"` // priority / urgency / top suitability
	Inputs     map[string]float64 `json:"inputs"`
	LatencyMs  float64            `json:"latency_ms"`
	Timestamp  time.Time          `json:"timestamp"`
}
