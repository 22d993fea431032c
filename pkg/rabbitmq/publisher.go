package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes raw payloads to a topic.
type IPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher publishes on a shared MQTT client.
type Publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

func NewPublisher(client mqtt.Client, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{client: client, timeout: timeout}
}

func (p *Publisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return nil
}

// PublishJSON encodes v and publishes it.
func PublishJSON(p IPublisher, topic string, qos byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	return p.Publish(topic, qos, false, b)
}
