package inference

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/messages"
	"github.com/LeonardoBeccarini/agri_inference/pkg/rabbitmq"
)

// Sink receives an event for every successful prediction. Implementations must not block
// the request for long and never fail it: errors are theirs to log.
type Sink interface {
	Record(ctx context.Context, evt messages.PredictionEvent)
}

// MultiSink fans an event out to every sink, in order.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, evt messages.PredictionEvent) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, evt)
		}
	}
}

// DefaultPredictionTopic is expanded with the model name.
const DefaultPredictionTopic = "event/prediction/{model}"

// DefaultSinkBuffer is the number of events an MQTTSink queues before dropping.
const DefaultSinkBuffer = 256

// MQTTSink publishes prediction events as JSON, QoS 1. Record only queues the event;
// a single goroutine does the publishing, so a slow broker never holds up a prediction.
// When the queue is full the event is dropped and counted.
type MQTTSink struct {
	pub      rabbitmq.IPublisher
	template string
	logger   logr.Logger

	mu      sync.RWMutex
	closed  bool
	events  chan messages.PredictionEvent
	done    chan struct{}
	dropped atomic.Int64
}

func NewMQTTSink(pub rabbitmq.IPublisher, topicTemplate string, buffer int, logger logr.Logger) *MQTTSink {
	if strings.TrimSpace(topicTemplate) == "" {
		topicTemplate = DefaultPredictionTopic
	}
	if buffer <= 0 {
		buffer = DefaultSinkBuffer
	}
	s := &MQTTSink{
		pub:      pub,
		template: topicTemplate,
		logger:   logger,
		events:   make(chan messages.PredictionEvent, buffer),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *MQTTSink) Topic(model string) string {
	return strings.ReplaceAll(s.template, "{model}", model)
}

func (s *MQTTSink) Record(_ context.Context, evt messages.PredictionEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- evt:
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			s.logger.Info("Prediction event queue full, dropping", "id", evt.ID, "dropped", n)
		}
	}
}

// Dropped is the number of events discarded because the queue was full.
func (s *MQTTSink) Dropped() int64 { return s.dropped.Load() }

// Close stops accepting events and waits for the queued ones to be published.
func (s *MQTTSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *MQTTSink) loop() {
	defer close(s.done)
	for evt := range s.events {
		s.publish(evt)
	}
}

func (s *MQTTSink) publish(evt messages.PredictionEvent) {
	b, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error(err, "Error encoding prediction event", "id", evt.ID)
		return
	}
	topic := s.Topic(evt.Model)
	if err := s.pub.Publish(topic, 1, false, b); err != nil {
		s.logger.Error(err, "Error publishing prediction event", "topic", topic, "id", evt.ID)
	}
}
