package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/atdesk-features/internal/datastream"
	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// Processor handles parsing of raw datapoint messages
type Processor struct {
	keywords map[sensor.Type][]string
	logger   *slog.Logger
}

// NewProcessor creates a new message processor. A nil keyword map uses
// datastream.DefaultKeywords.
func NewProcessor(keywords map[sensor.Type][]string, logger *slog.Logger) *Processor {
	if keywords == nil {
		keywords = datastream.DefaultKeywords
	}
	return &Processor{
		keywords: keywords,
		logger:   logger,
	}
}

// DatapointMessage is a parsed batch of datapoints for one stream
type DatapointMessage struct {
	UserID     string
	Label      string
	SensorType sensor.Type
	Datapoints []sensor.Datapoint
	ReceivedAt time.Time
}

// StoredPayload is published after a message has been stored
type StoredPayload struct {
	UserID   string `json:"user_id"`
	Stream   string `json:"stream"`
	Sensor   string `json:"sensor"`
	Stored   int    `json:"stored"`
	Rejected int    `json:"rejected"`
	StoredAt string `json:"stored_at"`
}

// ParseMessage parses an MQTT message into datapoints.
// Topic pattern: atdesk/raw/{user_id}/{stream_label}. The payload is a
// datapoint, a list of datapoints, or either wrapped in {"data": ...}.
func (p *Processor) ParseMessage(topic string, payload []byte) (*DatapointMessage, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[2] == "" || parts[3] == "" {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return nil, fmt.Errorf("invalid topic format: %s (expected atdesk/raw/{user}/{stream})", topic)
	}
	userID, label := parts[2], parts[3]

	sensorType, ok := p.ResolveType(label)
	if !ok {
		return nil, fmt.Errorf("stream %s does not match any sensor type", label)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	body := json.RawMessage(payload)
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Data) > 0 {
		body = envelope.Data
	}

	dps, err := decodeDatapoints(body)
	if err != nil {
		p.logger.Error("Failed to parse JSON payload", "topic", topic, "error", err)
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(dps) == 0 {
		return nil, fmt.Errorf("message on %s has no datapoints", topic)
	}

	p.logger.Debug("Parsed datapoint message",
		"user_id", userID,
		"stream", label,
		"sensor", sensorType,
		"datapoints", len(dps))

	return &DatapointMessage{
		UserID:     userID,
		Label:      label,
		SensorType: sensorType,
		Datapoints: dps,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// ResolveType returns the first sensor type whose keywords all occur in label
func (p *Processor) ResolveType(label string) (sensor.Type, bool) {
	for _, t := range sensor.AllTypes {
		kws, ok := p.keywords[t]
		if !ok || len(kws) == 0 {
			continue
		}
		if len(datastream.ExtractMatchedLabels([]string{label}, kws)) == 1 {
			return t, true
		}
	}
	return "", false
}

func decodeDatapoints(body []byte) ([]sensor.Datapoint, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var dps []sensor.Datapoint
		if err := json.Unmarshal(body, &dps); err != nil {
			return nil, err
		}
		return dps, nil
	}
	var dp sensor.Datapoint
	if err := json.Unmarshal(body, &dp); err != nil {
		return nil, err
	}
	return []sensor.Datapoint{dp}, nil
}

// BuildStoredPayload creates the payload announcing stored datapoints
func (p *Processor) BuildStoredPayload(msg *DatapointMessage, stored, rejected int) ([]byte, error) {
	data, err := json.Marshal(StoredPayload{
		UserID:   msg.UserID,
		Stream:   msg.Label,
		Sensor:   string(msg.SensorType),
		Stored:   stored,
		Rejected: rejected,
		StoredAt: msg.ReceivedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stored payload: %w", err)
	}
	return data, nil
}
