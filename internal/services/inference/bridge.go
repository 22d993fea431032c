package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-logr/logr"

	"github.com/LeonardoBeccarini/agri_inference/internal/model"
	"github.com/LeonardoBeccarini/agri_inference/pkg/dedup"
	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
	"github.com/LeonardoBeccarini/agri_inference/pkg/rabbitmq"
)

const (
	DefaultRequestTopic = "inference/request"
	DefaultResultTopic  = "inference/result"
)

// Bridge serves predictions over MQTT: a request on <requests>/<model>/<id> carrying the
// same JSON body as the HTTP endpoint is answered on <results>/<model>/<id>.
type Bridge struct {
	svc       *Service
	consumer  rabbitmq.IConsumer
	publisher rabbitmq.IPublisher
	deduper   *dedup.Deduper
	requests  string
	results   string
	logger    logr.Logger
}

type BridgeConfig struct {
	RequestTopic string
	ResultTopic  string
}

// withDefaults fills empty topics and drops trailing slashes.
func (c BridgeConfig) withDefaults() BridgeConfig {
	return BridgeConfig{
		RequestTopic: strings.TrimRight(orDefault(c.RequestTopic, DefaultRequestTopic), "/"),
		ResultTopic:  strings.TrimRight(orDefault(c.ResultTopic, DefaultResultTopic), "/"),
	}
}

// SubscriptionTopic is the filter the bridge's consumer must be created with.
func (c BridgeConfig) SubscriptionTopic() string {
	return c.withDefaults().RequestTopic + "/#"
}

func NewBridge(svc *Service, consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, d *dedup.Deduper, cfg BridgeConfig, logger logr.Logger) *Bridge {
	cfg = cfg.withDefaults()
	b := &Bridge{
		svc:       svc,
		consumer:  consumer,
		publisher: publisher,
		deduper:   d,
		requests:  cfg.RequestTopic,
		results:   cfg.ResultTopic,
		logger:    logger,
	}
	consumer.SetHandler(b.Handle)
	return b
}

func (b *Bridge) SubscriptionTopic() string {
	return b.requests + "/#"
}

// Run blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	return b.consumer.ConsumeMessage(ctx)
}

// Handle answers one request message. Redeliveries of a request already answered are dropped.
func (b *Bridge) Handle(topic string, m mqtt.Message) error {
	if b.deduper != nil && !b.deduper.ShouldProcess(dedup.Key(append([]byte(topic+"\x00"), m.Payload()...))) {
		b.logger.V(logging.DEBUG).Info("Duplicate request dropped", "topic", topic)
		return nil
	}

	rest := strings.TrimPrefix(topic, b.requests+"/")
	if rest == topic {
		return fmt.Errorf("topic %s is not under %s", topic, b.requests)
	}
	name, id, _ := strings.Cut(rest, "/")

	res := model.InferenceResult{RequestID: id, Model: name}
	k, ok := ParseKind(name)
	if !ok {
		res.Status, res.Body = encodeBody(http.StatusNotFound, ErrorBody{Error: fmt.Sprintf("Unknown model %q", name)})
		return b.reply(name, id, res)
	}
	res.Model = string(k)

	ctx := logr.NewContext(context.Background(), b.logger.WithValues("reqID", id, "transport", "mqtt"))
	resp, err := b.predict(ctx, k, m.Payload())
	if err != nil {
		res.Status, res.Body = encodeBody(HTTPStatus(err), NewErrorBody(err))
	} else {
		res.Status, res.Body = encodeBody(http.StatusOK, resp)
	}
	return b.reply(string(k), id, res)
}

func (b *Bridge) predict(ctx context.Context, k Kind, payload []byte) (any, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, errNoData()
	}
	input, err := DecodeInputJSON(payload)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindFertility:
		return b.svc.PredictFertility(ctx, input)
	case KindIrrigation:
		return b.svc.PredictIrrigation(ctx, input)
	default:
		return b.svc.RecommendCrops(ctx, input)
	}
}

func (b *Bridge) reply(name, id string, res model.InferenceResult) error {
	topic := b.results + "/" + name
	if id != "" {
		topic += "/" + id
	}
	return rabbitmq.PublishJSON(b.publisher, topic, 1, res)
}

func encodeBody(status int, v any) (int, json.RawMessage) {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(ErrorBody{Error: err.Error()})
		return http.StatusInternalServerError, body
	}
	return status, body
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
