package mqtt

import "fmt"

// Topic constants for the feature pipeline
const (
	// Raw wearable datapoints (input): atdesk/raw/{user_id}/{stream_label}
	TopicRawDatapoints = "atdesk/raw/+/+"

	// Batch run trigger (input)
	TopicRunTrigger = "atdesk/features/run"

	// Batch summary (output)
	TopicSummary = "atdesk/features/summary"
)

// RawDatapointTopic constructs the topic a wearable publishes one stream on
// Pattern: atdesk/raw/{user_id}/{stream_label}
func RawDatapointTopic(userID, label string) string {
	return fmt.Sprintf("atdesk/raw/%s/%s", userID, label)
}

// SessionTopic constructs the topic a session outcome is published on
// Pattern: atdesk/features/session/{user_id}/{day}
func SessionTopic(userID, day string) string {
	return fmt.Sprintf("atdesk/features/session/%s/%s", userID, day)
}

// StoredTopic constructs the topic announcing that datapoints were stored
// Pattern: atdesk/stored/{user_id}/{stream_label}
func StoredTopic(userID, label string) string {
	return fmt.Sprintf("atdesk/stored/%s/%s", userID, label)
}

// StatusTopic constructs the retained service availability topic
// Pattern: atdesk/status/{service_name}
func StatusTopic(serviceName string) string {
	return fmt.Sprintf("atdesk/status/%s", serviceName)
}

// Service availability payloads
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)
