package rabbitmq

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-logr/logr"
)

// Handler processes one message received on a subscription.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes and delivers messages until its context ends.
type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(handler Handler)
}

// Consumer subscribes one topic filter on a shared client.
type Consumer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	handler Handler
	logger  logr.Logger
}

func NewConsumer(client mqtt.Client, topic string, qos byte, logger logr.Logger) *Consumer {
	return &Consumer{client: client, topic: topic, qos: qos, logger: logger.WithValues("topic", topic)}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// ConsumeMessage subscribes and blocks until ctx is cancelled, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	token := c.client.Subscribe(c.topic, c.qos, func(_ mqtt.Client, m mqtt.Message) {
		c.dispatch(m)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, token.Error())
	}
	c.logger.Info("Subscribed")

	<-ctx.Done()

	c.client.Unsubscribe(c.topic).Wait()
	c.logger.Info("Unsubscribed")
	return nil
}

func (c *Consumer) dispatch(m mqtt.Message) {
	if c.handler == nil {
		c.logger.Info("No handler set, dropping message", "msgTopic", m.Topic())
		return
	}
	if err := c.handler(m.Topic(), m); err != nil {
		c.logger.Error(err, "Error handling message", "msgTopic", m.Topic())
	}
}
