// Package rabbitmq connects to the RabbitMQ MQTT plugin (or any MQTT 3.1.1 broker)
// and offers thin publish / subscribe helpers on top of paho.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-logr/logr"
)

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string

	// MaxRetries bounds the connection attempts; MaxElapsed bounds their total duration.
	MaxRetries int
	MaxElapsed time.Duration
}

// NewRabbitMQConn connects with exponential backoff and disconnects when ctx is done.
func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQConfig, logger logr.Logger) (mqtt.Client, error) {
	connAddr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Error(err, "MQTT connection lost", "broker", connAddr)
	})

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxElapsed
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Info("Failed to connect to MQTT broker", "broker", connAddr, "err", token.Error().Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	logger.Info("Connected to MQTT broker", "broker", connAddr)

	go func() {
		<-ctx.Done()
		CloseRabbitMQConn(client, logger)
	}()
	return client, nil
}

func CloseRabbitMQConn(client mqtt.Client, logger logr.Logger) {
	if client.IsConnected() {
		client.Disconnect(250)
		logger.Info("MQTT connection closed")
	}
}
