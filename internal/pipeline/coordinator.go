package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saaga0h/atdesk-features/pkg/health"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
)

// Coordinator runs batches on MQTT triggers, one at a time
type Coordinator struct {
	runner *Runner
	mqtt   mqtt.Client
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	last    *Summary
	done    chan struct{}
}

// RunTrigger is the payload accepted on the run trigger topic.
// An empty payload runs every registered user.
type RunTrigger struct {
	Users []string `json:"users,omitempty"`
}

// NewCoordinator creates a batch coordinator
func NewCoordinator(runner *Runner, mqttClient mqtt.Client, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		runner: runner,
		mqtt:   mqttClient,
		logger: logger.With("component", "batch_coordinator"),
	}
}

// Start subscribes to the run trigger topic
func (c *Coordinator) Start(ctx context.Context) error {
	handler := func(msg mqtt.Message) {
		c.handleTrigger(ctx, msg)
	}
	if err := c.mqtt.Subscribe(mqtt.TopicRunTrigger, 1, handler); err != nil {
		return fmt.Errorf("failed to subscribe to run trigger topic: %w", err)
	}

	c.logger.Info("Waiting for batch triggers", "topic", mqtt.TopicRunTrigger)
	return nil
}

func (c *Coordinator) handleTrigger(ctx context.Context, msg mqtt.Message) {
	var trigger RunTrigger
	if payload := msg.Payload(); len(payload) > 0 {
		if err := json.Unmarshal(payload, &trigger); err != nil {
			c.logger.Error("Failed to parse run trigger", "error", err)
			return
		}
	}

	c.logger.Info("Received batch trigger", "users", trigger.Users)

	if _, err := c.Trigger(ctx, trigger.Users...); err != nil {
		c.logger.Warn("Batch trigger ignored", "error", err)
	}
}

// Trigger starts a batch in the background and returns a channel closed when
// it finishes. It fails if a batch is already running.
func (c *Coordinator) Trigger(ctx context.Context, users ...string) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil, fmt.Errorf("batch already running")
	}
	c.running = true
	c.done = make(chan struct{})
	done := c.done

	go func() {
		defer close(done)

		summary, err := c.runner.Run(ctx, users...)

		c.mu.Lock()
		c.running = false
		if err == nil {
			c.last = summary
		}
		c.mu.Unlock()

		if err != nil {
			c.logger.Error("Batch run failed", "error", err)
		}
	}()

	return done, nil
}

// Wait blocks until the running batch, if any, has finished
func (c *Coordinator) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// LastSummary returns the summary of the most recent completed batch
func (c *Coordinator) LastSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// BatchStatus implements health.BatchReporter
func (c *Coordinator) BatchStatus() health.BatchStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := health.BatchStatus{Running: c.running}
	if c.last != nil {
		status.LastRunID = c.last.RunID.String()
		status.LastFinishedAt = c.last.FinishedAt
		status.Succeeded = c.last.Succeeded
		status.Skipped = c.last.Skipped
		status.Failed = c.last.Failed
	}
	return status
}
