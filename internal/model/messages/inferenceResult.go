package messages

import "encoding/json"

// InferenceResult is published by the MQTT bridge in reply to a request on inference/request/...
// Status mirrors the HTTP status the same body would have produced.
type InferenceResult struct {
	RequestID string          `json:"request_id"`
	Model     string          `json:"model"`
	Status    int             `json:"status"`
	Body      json.RawMessage `json:"body"`
}
