package datastream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/pkg/redis"
)

// Store reads raw sensor datastreams
type Store interface {
	// ListStreams returns the stream labels recorded for a user
	ListStreams(ctx context.Context, userID string) ([]string, error)

	// Datastream returns the datapoints of one stream with start time in [from, to], sorted
	Datastream(ctx context.Context, userID, label string, from, to float64) ([]sensor.Datapoint, error)
}

// RedisStore keeps each datastream in a sorted set scored by start time in milliseconds
type RedisStore struct {
	client redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a datastream store on top of a Redis client
func NewRedisStore(client redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With("component", "datastream"),
	}
}

// ListStreams returns the stream labels of a user, sorted
func (s *RedisStore) ListStreams(ctx context.Context, userID string) ([]string, error) {
	keys, err := s.client.Keys(ctx, redis.UserStreamPattern(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list streams for %s: %w", userID, err)
	}

	labels := make([]string, 0, len(keys))
	for _, key := range keys {
		if label, ok := redis.StreamLabelFromKey(userID, key); ok {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// Datastream returns the datapoints of one stream within [from, to] epoch seconds
func (s *RedisStore) Datastream(ctx context.Context, userID, label string, from, to float64) ([]sensor.Datapoint, error) {
	key := redis.StreamKey(userID, label)
	members, err := s.client.ZRangeByScoreWithScores(ctx, key, from*1000, to*1000)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", label, err)
	}

	dps := make([]sensor.Datapoint, 0, len(members))
	skipped := 0
	for _, m := range members {
		var dp sensor.Datapoint
		if err := json.Unmarshal([]byte(m.Member), &dp); err != nil {
			skipped++
			continue
		}
		dps = append(dps, dp)
	}
	if skipped > 0 {
		s.logger.Warn("Skipped undecodable datapoints",
			"user_id", userID,
			"stream", label,
			"skipped", skipped)
	}

	sensor.SortDatapoints(dps)
	return dps, nil
}

// Put appends datapoints to a stream
func (s *RedisStore) Put(ctx context.Context, userID, label string, dps ...sensor.Datapoint) error {
	if len(dps) == 0 {
		return nil
	}

	members := make([]redis.ZMember, 0, len(dps))
	for _, dp := range dps {
		data, err := json.Marshal(dp)
		if err != nil {
			return fmt.Errorf("failed to encode datapoint: %w", err)
		}
		members = append(members, redis.ZMember{
			Score:  dp.StartTime * 1000,
			Member: string(data),
		})
	}

	if err := s.client.ZAdd(ctx, redis.StreamKey(userID, label), members...); err != nil {
		return fmt.Errorf("failed to store %d datapoints: %w", len(dps), err)
	}
	return nil
}
