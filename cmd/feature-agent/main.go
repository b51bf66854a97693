package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/atdesk-features/internal/collector"
	"github.com/saaga0h/atdesk-features/internal/datastream"
	"github.com/saaga0h/atdesk-features/internal/groundtruth"
	"github.com/saaga0h/atdesk-features/internal/pipeline"
	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/internal/sink"
	"github.com/saaga0h/atdesk-features/pkg/config"
	"github.com/saaga0h/atdesk-features/pkg/health"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
	"github.com/saaga0h/atdesk-features/pkg/postgres"
	"github.com/saaga0h/atdesk-features/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "feature-agent"
	cfg.PublishEvents = true
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting at-desk feature agent",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"registry", cfg.RegistryFile,
		"sinks", cfg.Sinks,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	registry, err := groundtruth.Load(cfg.RegistryFile)
	if err != nil {
		logger.Error("Failed to load registry", "error", err)
		os.Exit(1)
	}

	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	if err := mqttClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to MQTT", "error", err)
		os.Exit(1)
	}
	if err := redisClient.Ping(ctx); err != nil {
		logger.Error("Failed to ping Redis", "error", err)
		os.Exit(1)
	}

	var pgClient postgres.Client
	if cfg.HasSink(sink.NamePostgres) {
		pg := postgres.NewClient(cfg, logger)
		if err := pg.Connect(ctx); err != nil {
			logger.Error("Failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		pgClient = pg
	}

	out, err := sink.FromConfig(ctx, cfg, pgClient, logger)
	if err != nil {
		logger.Error("Failed to create sink", "error", err)
		os.Exit(1)
	}

	store := datastream.NewRedisStore(redisClient, logger)
	loader := datastream.NewLoader(store, nil, logger).
		WithFill(cfg.FillMissingFreq, sensor.ActivityType, sensor.StepCount)
	runner := pipeline.NewRunner(registry, loader, out, mqttClient, cfg, logger)
	coordinator := pipeline.NewCoordinator(runner, mqttClient, logger)
	collectorAgent := collector.NewAgent(mqttClient, store, logger)

	if err := collectorAgent.Start(ctx); err != nil {
		logger.Error("Failed to start collector", "error", err)
		os.Exit(1)
	}
	if err := coordinator.Start(ctx); err != nil {
		logger.Error("Failed to start batch coordinator", "error", err)
		os.Exit(1)
	}

	healthChecker := health.NewChecker(mqttClient, redisClient, pgClient, coordinator, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	<-sigChan
	logger.Info("Shutdown signal received (SIGTERM/SIGINT)")

	// Graceful shutdown
	cancel()
	coordinator.Wait()
	mqttClient.Disconnect()
	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis connection", "error", err)
	}
	if pgClient != nil {
		if err := pgClient.Disconnect(); err != nil {
			logger.Error("Error closing postgres connection", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Feature agent shutdown complete")
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
