package redis

import (
	"context"
)

// ZMember represents a sorted set member with its score
type ZMember struct {
	Score  float64
	Member string
}

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// ZAdd adds members with scores to a sorted set
	ZAdd(ctx context.Context, key string, members ...ZMember) error

	// ZRangeByScoreWithScores returns members in a sorted set within a score range with their scores
	ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]ZMember, error)

	// ZCard returns the number of members in a sorted set
	ZCard(ctx context.Context, key string) (int64, error)

	// Keys returns all keys matching a pattern
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
