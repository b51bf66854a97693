package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saaga0h/atdesk-features/internal/datastream"
	"github.com/saaga0h/atdesk-features/internal/validation"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
)

// Agent receives raw wearable datapoints over MQTT and stores them in the datastream store
type Agent struct {
	mqtt      mqtt.Client
	store     *datastream.RedisStore
	processor *Processor
	logger    *slog.Logger
}

// NewAgent creates a new collector agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, store *datastream.RedisStore, logger *slog.Logger) *Agent {
	logger = logger.With("component", "collector")
	return &Agent{
		mqtt:      mqttClient,
		store:     store,
		processor: NewProcessor(nil, logger),
		logger:    logger,
	}
}

// Start subscribes to the raw datapoint topic
func (a *Agent) Start(ctx context.Context) error {
	handler := func(msg mqtt.Message) {
		a.handleMessage(ctx, msg)
	}
	if err := a.mqtt.Subscribe(mqtt.TopicRawDatapoints, 0, handler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicRawDatapoints, err)
	}

	a.logger.Info("Collector ready to receive datapoints", "topic", mqtt.TopicRawDatapoints)
	return nil
}

// handleMessage validates and stores one datapoint message
func (a *Agent) handleMessage(ctx context.Context, msg mqtt.Message) {
	topic := msg.Topic()

	parsed, err := a.processor.ParseMessage(topic, msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse message", "topic", topic, "error", err)
		return
	}

	valid, rejected := validation.Filter(parsed.SensorType, parsed.Datapoints)
	if rejected > 0 {
		a.logger.Warn("Rejected invalid datapoints",
			"user_id", parsed.UserID,
			"stream", parsed.Label,
			"rejected", rejected)
	}

	if err := a.store.Put(ctx, parsed.UserID, parsed.Label, valid...); err != nil {
		a.logger.Error("Failed to store datapoints",
			"user_id", parsed.UserID,
			"stream", parsed.Label,
			"error", err)
		return
	}

	if err := a.publishStored(parsed, len(valid), rejected); err != nil {
		a.logger.Error("Failed to publish stored message", "stream", parsed.Label, "error", err)
	}

	a.logger.Debug("Datapoints stored",
		"user_id", parsed.UserID,
		"stream", parsed.Label,
		"stored", len(valid))
}

// publishStored announces stored datapoints on atdesk/stored/{user}/{stream}
func (a *Agent) publishStored(msg *DatapointMessage, stored, rejected int) error {
	payload, err := a.processor.BuildStoredPayload(msg, stored, rejected)
	if err != nil {
		return err
	}
	if err := a.mqtt.Publish(mqtt.StoredTopic(msg.UserID, msg.Label), 0, false, payload); err != nil {
		return fmt.Errorf("failed to publish stored message: %w", err)
	}
	return nil
}
