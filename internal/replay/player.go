package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
)

// Player publishes recorded streams onto the raw datapoint topics
type Player struct {
	client    mqtt.Client
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

// NewPlayer creates a player that sends batchSize datapoints per message,
// sleeping interval between messages
func NewPlayer(client mqtt.Client, batchSize int, interval time.Duration, logger *slog.Logger) *Player {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Player{
		client:    client,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger.With("component", "replay"),
	}
}

// Datapoints expands a stream into timestamped datapoints
func (s Stream) Datapoints() []sensor.Datapoint {
	offset := s.Offset
	if offset == 0 {
		_, offset = s.Start.Zone()
	}
	start := float64(s.Start.Unix()) + float64(s.Start.Nanosecond())/1e9

	dps := make([]sensor.Datapoint, len(s.Samples))
	for i, sample := range s.Samples {
		dps[i] = sensor.Datapoint{
			StartTime: start + float64(i)/s.Freq,
			Offset:    offset,
			Sample:    append([]float64(nil), sample...),
		}
	}
	return dps
}

// Play publishes every stream of the recording in order
func (p *Player) Play(ctx context.Context, rec *Recording) (*Result, error) {
	result := &Result{}
	for _, s := range rec.Streams {
		topic := mqtt.RawDatapointTopic(rec.UserID, s.Label)
		dps := s.Datapoints()

		for lo := 0; lo < len(dps); lo += p.batchSize {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			hi := min(lo+p.batchSize, len(dps))

			payload, err := json.Marshal(dps[lo:hi])
			if err != nil {
				return result, fmt.Errorf("failed to marshal datapoints: %w", err)
			}
			// QoS 1 so the collector sees every batch
			if err := p.client.Publish(topic, 1, false, payload); err != nil {
				return result, err
			}
			result.Messages++
			result.Datapoints += hi - lo

			if p.interval > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(p.interval):
				}
			}
		}

		result.Streams++
		p.logger.Info("Replayed stream", "user_id", rec.UserID, "stream", s.Label, "datapoints", len(dps))
	}
	return result, nil
}
