package service

import (
	"context"
	"encoding/json"
	"fmt"

	"clinic-orchestrator/config"
	"clinic-orchestrator/internal/domain/entity"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NotificationDispatcher hands user-facing events to the delivery system.
// Delivery formatting and fan-out to devices happen downstream.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, event entity.DomainEvent) error
	Close()
}

// NewNotificationDispatcher builds the dispatcher selected by cfg.Driver.
func NewNotificationDispatcher(cfg config.NotifyConfig, redisClient *redis.Client, log *logrus.Logger) (NotificationDispatcher, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedisStreamDispatcher(redisClient, cfg.Stream), nil
	case "mqtt":
		return NewMQTTDispatcher(cfg, log)
	case "", "none":
		return NoopDispatcher{}, nil
	}
	return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
}

// NoopDispatcher drops every event.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(context.Context, entity.DomainEvent) error { return nil }
func (NoopDispatcher) Close()                                            {}

type redisStreamDispatcher struct {
	redisClient *redis.Client
	stream      string
}

// NewRedisStreamDispatcher appends events to a Redis stream with XADD.
func NewRedisStreamDispatcher(redisClient *redis.Client, stream string) NotificationDispatcher {
	return &redisStreamDispatcher{redisClient: redisClient, stream: stream}
}

func (d *redisStreamDispatcher) Dispatch(ctx context.Context, event entity.DomainEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	return d.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]interface{}{
			"event_id":     event.ID.String(),
			"type":         string(event.Type),
			"aggregate":    event.Aggregate,
			"aggregate_id": event.AggregateID.String(),
			"payload":      string(payload),
			"occurred_at":  event.OccurredAt.Unix(),
		},
	}).Err()
}

func (d *redisStreamDispatcher) Close() {}

type mqttDispatcher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTDispatcher connects to the broker and publishes each event to
// {prefix}/{aggregate}/{type} at QoS 1.
func NewMQTTDispatcher(cfg config.NotifyConfig, log *logrus.Logger) (NotificationDispatcher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %+v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &mqttDispatcher{client: client, topicPrefix: cfg.MQTTTopicPrefix}, nil
}

func (d *mqttDispatcher) Dispatch(ctx context.Context, event entity.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s/%s/%s", d.topicPrefix, event.Aggregate, event.Type)
	token := d.client.Publish(topic, 1, false, payload)

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *mqttDispatcher) Close() {
	d.client.Disconnect(250)
}
