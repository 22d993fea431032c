package rabbitmq

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool { return true }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes and keeps subscription callbacks so tests can deliver messages.
type fakeClient struct {
	mu           sync.Mutex
	published    []published
	subs         map[string]mqtt.MessageHandler
	unsubscribed []string
	publishErr   error
	publishSlow  bool
	subscribeErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{subs: map[string]mqtt.MessageHandler{}}
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return &fakeToken{} }
func (c *fakeClient) Disconnect(uint)        {}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, _ := payload.([]byte)
	c.published = append(c.published, published{topic: topic, qos: qos, retained: retained, payload: b})
	return &fakeToken{err: c.publishErr, timeout: c.publishSlow}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr == nil {
		c.subs[topic] = cb
	}
	return &fakeToken{err: c.subscribeErr}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribed = append(c.unsubscribed, topics...)
	for _, t := range topics {
		delete(c.subs, t)
	}
	return &fakeToken{}
}

func (c *fakeClient) AddRoute(string, mqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func (c *fakeClient) handler(topic string) (mqtt.MessageHandler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.subs[topic]
	return h, ok
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}
