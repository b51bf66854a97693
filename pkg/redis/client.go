package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/saaga0h/atdesk-features/pkg/config"
)

// redisClient implements the Client interface using go-redis
type redisClient struct {
	client *redis.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewClient creates a new Redis client with the given configuration
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddress(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	client := redis.NewClient(opts)

	return &redisClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// ZAdd adds members with scores to a sorted set
func (r *redisClient) ZAdd(ctx context.Context, key string, members ...ZMember) error {
	zs := make([]redis.Z, 0, len(members))
	for _, m := range members {
		zs = append(zs, redis.Z{Score: m.Score, Member: m.Member})
	}
	err := r.client.ZAdd(ctx, key, zs...).Err()
	if err != nil {
		return fmt.Errorf("failed to add to sorted set %s: %w", key, err)
	}
	return nil
}

// ZRangeByScoreWithScores returns members in a sorted set within a score range with their scores
func (r *redisClient) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]ZMember, error) {
	zs, err := r.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%f", min),
		Max: fmt.Sprintf("%f", max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range sorted set %s: %w", key, err)
	}

	members := make([]ZMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		members = append(members, ZMember{Score: z.Score, Member: member})
	}
	return members, nil
}

// ZCard returns the number of members in a sorted set
func (r *redisClient) ZCard(ctx context.Context, key string) (int64, error) {
	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get cardinality of sorted set %s: %w", key, err)
	}
	return count, nil
}

// Keys returns all keys matching a pattern, iterating with SCAN
func (r *redisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys %s: %w", pattern, err)
	}
	return keys, nil
}

// Ping checks the connection to Redis
func (r *redisClient) Ping(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	r.logger.Debug("Redis ping ok", "address", r.cfg.RedisAddress())
	return nil
}

// Close closes the Redis connection
func (r *redisClient) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}
