package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"raw datapoints", RawDatapointTopic("u1", "PHONE_ACCELEROMETER"), "atdesk/raw/u1/PHONE_ACCELEROMETER"},
		{"session outcome", SessionTopic("u1", "2023-05-02"), "atdesk/features/session/u1/2023-05-02"},
		{"stored datapoints", StoredTopic("u1", "BEACON"), "atdesk/stored/u1/BEACON"},
		{"service status", StatusTopic("feature-agent"), "atdesk/status/feature-agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
