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

	"github.com/saaga0h/atdesk-features/internal/replay"
	"github.com/saaga0h/atdesk-features/pkg/config"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
)

func main() {
	recordingPath := pflag.String("recording", "", "Path to the YAML recording to replay")
	batchSize := pflag.Int("batch", 50, "Datapoints per MQTT message")
	interval := pflag.Duration("interval", 0, "Pause between messages")

	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "replay"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *recordingPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: replay --recording <file.yaml>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	rec, err := replay.Load(*recordingPath)
	if err != nil {
		logger.Error("Failed to load recording", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := mqtt.NewClient(cfg, logger)
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	err = client.Connect(connectCtx)
	connectCancel()
	if err != nil {
		logger.Error("Failed to connect to MQTT", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	logger.Info("Replaying recording",
		"name", rec.Name,
		"user_id", rec.UserID,
		"streams", len(rec.Streams),
		"broker", cfg.MQTTAddress())

	result, err := replay.NewPlayer(client, *batchSize, *interval, logger).Play(ctx, rec)
	if err != nil {
		logger.Error("Replay stopped", "error", err, "messages", result.Messages)
		client.Disconnect()
		os.Exit(1)
	}

	logger.Info("Replay complete",
		"streams", result.Streams,
		"messages", result.Messages,
		"datapoints", result.Datapoints)
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
