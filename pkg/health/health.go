package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/atdesk-features/pkg/mqtt"
	"github.com/saaga0h/atdesk-features/pkg/postgres"
	"github.com/saaga0h/atdesk-features/pkg/redis"
)

// BatchStatus is the state of the feature batch runner
type BatchStatus struct {
	Running        bool      `json:"running"`
	LastRunID      string    `json:"last_run_id,omitempty"`
	LastFinishedAt time.Time `json:"last_finished_at,omitempty"`
	Succeeded      int       `json:"succeeded"`
	Skipped        int       `json:"skipped"`
	Failed         int       `json:"failed"`
}

// BatchReporter exposes the batch runner state
type BatchReporter interface {
	BatchStatus() BatchStatus
}

// Checker provides health check functionality for agents
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	batches  BatchReporter
	logger   *slog.Logger
}

// NewChecker creates a new health checker. Any dependency may be nil when
// the agent runs without it.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, batches BatchReporter, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:     mqttClient,
		redis:    redisClient,
		postgres: pgClient,
		batches:  batches,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Services  *Services    `json:"services,omitempty"`
	Batch     *BatchStatus `json:"batch,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis          string                 `json:"redis"`
	MQTT           string                 `json:"mqtt"`
	Postgres       string                 `json:"postgres,omitempty"`
	PostgresDetail *postgres.HealthStatus `json:"postgres_detail,omitempty"`
}

// HandlerFunc returns an HTTP handler function for health checks
// Returns 200 if process is alive without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}
		h.write(w, http.StatusOK, response)
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies and
// reports the last batch run
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := h.checkServices(ctx)

		status := "healthy"
		statusCode := http.StatusOK
		if services.Redis != "connected" || services.MQTT != "connected" ||
			(services.Postgres != "" && services.Postgres != "connected") {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}
		if h.batches != nil {
			batch := h.batches.BatchStatus()
			response.Batch = &batch
		}

		h.write(w, statusCode, response)
	}
}

func (h *Checker) checkServices(ctx context.Context) *Services {
	services := &Services{
		Redis: "disconnected",
		MQTT:  "disconnected",
	}

	if h.mqtt != nil && h.mqtt.IsConnected() {
		services.MQTT = "connected"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err == nil {
			services.Redis = "connected"
		} else {
			h.logger.Warn("Redis health check failed", "error", err)
		}
	}

	if h.postgres != nil {
		services.Postgres = "disconnected"
		st, err := h.postgres.HealthCheck(ctx)
		switch {
		case err != nil:
			h.logger.Warn("Postgres health check failed", "error", err)
		case st.Connected:
			services.Postgres = "connected"
			services.PostgresDetail = st
		default:
			h.logger.Warn("Postgres unreachable", "database", st.Database, "error", st.Error)
			services.PostgresDetail = st
		}
	}

	return services
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
