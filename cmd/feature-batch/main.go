package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/atdesk-features/internal/datastream"
	"github.com/saaga0h/atdesk-features/internal/groundtruth"
	"github.com/saaga0h/atdesk-features/internal/pipeline"
	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/internal/sink"
	"github.com/saaga0h/atdesk-features/pkg/config"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
	"github.com/saaga0h/atdesk-features/pkg/postgres"
	"github.com/saaga0h/atdesk-features/pkg/redis"
)

func main() {
	users := pflag.StringSlice("users", nil, "Only process these user ids (default: every registered user)")

	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "feature-batch"
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

	if err := run(cfg, *users, logger); err != nil {
		logger.Error("Feature batch failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, users []string, logger *slog.Logger) error {
	logger.Info("Starting feature batch",
		"registry", cfg.RegistryFile,
		"redis", cfg.RedisAddress(),
		"sinks", cfg.Sinks,
		"interp_freq", cfg.InterpFreq,
		"window_seconds", cfg.WindowSizeSeconds,
		"workers", cfg.Workers)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, err := groundtruth.Load(cfg.RegistryFile)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(cfg, logger)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		return err
	}

	var pgClient postgres.Client
	if cfg.HasSink(sink.NamePostgres) {
		pg := postgres.NewClient(cfg, logger)
		if err := pg.Connect(ctx); err != nil {
			return err
		}
		defer pg.Disconnect()
		pgClient = pg
	}

	out, err := sink.FromConfig(ctx, cfg, pgClient, logger)
	if err != nil {
		return err
	}

	var publisher pipeline.Publisher
	if cfg.PublishEvents {
		mqttClient := mqtt.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		err := mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect()
		publisher = mqttClient
	}

	store := datastream.NewRedisStore(redisClient, logger)
	loader := datastream.NewLoader(store, nil, logger).
		WithFill(cfg.FillMissingFreq, sensor.ActivityType, sensor.StepCount)
	runner := pipeline.NewRunner(registry, loader, out, publisher, cfg, logger)

	summary, err := runner.Run(ctx, users...)
	if err != nil {
		return err
	}

	logger.Info("Feature batch finished",
		"run_id", summary.RunID,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	if n := summary.UserFailures(); n > 0 {
		return fmt.Errorf("%d user feature matrices could not be stored", n)
	}
	return nil
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
