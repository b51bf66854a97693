package collector

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/atdesk-features/internal/datastream"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
	"github.com/saaga0h/atdesk-features/pkg/redis"
)

type mockMQTT struct {
	handlers  map[string]mqtt.MessageHandler
	published []string
}

func (m *mockMQTT) Connect(ctx context.Context) error { return nil }
func (m *mockMQTT) Disconnect()                       {}
func (m *mockMQTT) Subscribe(topic string, qos byte, h mqtt.MessageHandler) error {
	m.handlers[topic] = h
	return nil
}
func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.published = append(m.published, topic)
	return nil
}
func (m *mockMQTT) IsConnected() bool { return true }

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string   { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
func (m *mockMessage) Ack()            {}

type mockRedis struct {
	members map[string][]redis.ZMember
}

func (m *mockRedis) ZAdd(ctx context.Context, key string, members ...redis.ZMember) error {
	m.members[key] = append(m.members[key], members...)
	return nil
}
func (m *mockRedis) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.ZMember, error) {
	return m.members[key], nil
}
func (m *mockRedis) ZCard(ctx context.Context, key string) (int64, error) {
	return int64(len(m.members[key])), nil
}
func (m *mockRedis) Keys(ctx context.Context, pattern string) ([]string, error) { return nil, nil }
func (m *mockRedis) Ping(ctx context.Context) error                             { return nil }
func (m *mockRedis) Close() error                                               { return nil }

func TestAgentStoresValidDatapoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := &mockMQTT{handlers: make(map[string]mqtt.MessageHandler)}
	rdb := &mockRedis{members: make(map[string][]redis.ZMember)}

	agent := NewAgent(client, datastream.NewRedisStore(rdb, logger), logger)
	require.NoError(t, agent.Start(context.Background()))

	handler := client.handlers[mqtt.TopicRawDatapoints]
	require.NotNil(t, handler)

	label := "STEP_COUNT--org.md2k.phonesensor--PHONE"
	handler(&mockMessage{
		topic:   mqtt.RawDatapointTopic("u1", label),
		payload: []byte(`{"data":[{"start_time":1,"offset":0,"sample":[3]},{"start_time":2,"offset":0,"sample":[500]}]}`),
	})

	count, err := rdb.ZCard(context.Background(), redis.StreamKey("u1", label))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "out-of-range step count is not stored")
	assert.Equal(t, []string{mqtt.StoredTopic("u1", label)}, client.published)

	handler(&mockMessage{topic: "atdesk/raw/u1", payload: []byte(`{}`)})
	assert.Len(t, client.published, 1, "unparseable messages are dropped")
}
