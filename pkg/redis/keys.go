package redis

import (
	"fmt"
	"strings"
)

// Key construction helpers for the raw sensor store

const streamPrefix = "stream:"

// StreamKey returns the key for one user's datastream (sorted set scored by start time in ms)
// Pattern: stream:{user_id}:{stream_label}
func StreamKey(userID, label string) string {
	return fmt.Sprintf("%s%s:%s", streamPrefix, userID, label)
}

// UserStreamPattern returns the KEYS/SCAN pattern matching every stream of a user
func UserStreamPattern(userID string) string {
	return fmt.Sprintf("%s%s:*", streamPrefix, userID)
}

// StreamLabelFromKey extracts the stream label from a key built by StreamKey
func StreamLabelFromKey(userID, key string) (string, bool) {
	prefix := streamPrefix + userID + ":"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key[len(prefix):], true
}
