package datastream

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/pkg/redis"
)

// mockRedis keeps sorted sets in memory
type mockRedis struct {
	sets map[string][]redis.ZMember
}

func newMockRedis() *mockRedis {
	return &mockRedis{sets: make(map[string][]redis.ZMember)}
}

func (m *mockRedis) ZAdd(ctx context.Context, key string, members ...redis.ZMember) error {
	m.sets[key] = append(m.sets[key], members...)
	sort.SliceStable(m.sets[key], func(i, j int) bool {
		return m.sets[key][i].Score < m.sets[key][j].Score
	})
	return nil
}

func (m *mockRedis) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.ZMember, error) {
	var out []redis.ZMember
	for _, z := range m.sets[key] {
		if z.Score >= min && z.Score <= max {
			out = append(out, z)
		}
	}
	return out, nil
}

func (m *mockRedis) ZCard(ctx context.Context, key string) (int64, error) {
	return int64(len(m.sets[key])), nil
}

func (m *mockRedis) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.sets {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockRedis) Ping(ctx context.Context) error { return nil }
func (m *mockRedis) Close() error                   { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newMockRedis()
	store := NewRedisStore(client, testLogger())

	require.NoError(t, store.Put(ctx, "u1", "STEP_COUNT--PHONE",
		sensor.Datapoint{StartTime: 30, Sample: []float64{3}},
		sensor.Datapoint{StartTime: 10, Sample: []float64{1}},
		sensor.Datapoint{StartTime: 20, Sample: []float64{2}},
	))
	require.NoError(t, store.Put(ctx, "u1", "GYROSCOPE--PHONE",
		sensor.Datapoint{StartTime: 10, Sample: []float64{0, 0, 0}},
	))
	require.NoError(t, store.Put(ctx, "u2", "GYROSCOPE--PHONE",
		sensor.Datapoint{StartTime: 10, Sample: []float64{0, 0, 0}},
	))

	labels, err := store.ListStreams(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"GYROSCOPE--PHONE", "STEP_COUNT--PHONE"}, labels)

	dps, err := store.Datastream(ctx, "u1", "STEP_COUNT--PHONE", 15, 30)
	require.NoError(t, err)
	require.Len(t, dps, 2)
	assert.Equal(t, 20.0, dps[0].StartTime)
	assert.Equal(t, []float64{3}, dps[1].Sample)
}

func TestRedisStoreSkipsUndecodable(t *testing.T) {
	ctx := context.Background()
	client := newMockRedis()
	require.NoError(t, client.ZAdd(ctx, redis.StreamKey("u1", "STEP_COUNT--PHONE"),
		redis.ZMember{Score: 1000, Member: "not json"},
		redis.ZMember{Score: 2000, Member: `{"start_time":2,"offset":0,"sample":[4]}`},
	))

	dps, err := NewRedisStore(client, testLogger()).Datastream(ctx, "u1", "STEP_COUNT--PHONE", 0, 10)
	require.NoError(t, err)
	require.Len(t, dps, 1)
	assert.Equal(t, []float64{4}, dps[0].Sample)
}

func TestLoaderKeepsLocalDay(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newMockRedis(), testLogger())

	// 2017-10-24T00:00:00Z
	const midnight = 1508803200.0
	const cst = -5 * 3600

	require.NoError(t, store.Put(ctx, "u1", "STEP_COUNT--org.md2k--PHONE",
		// 2017-10-23 23:00 local
		sensor.Datapoint{StartTime: midnight + 4*3600, Offset: cst, Sample: []float64{1}},
		// 2017-10-24 09:00 local
		sensor.Datapoint{StartTime: midnight + 14*3600, Offset: cst, Sample: []float64{2}},
		// 2017-10-25 00:30 local
		sensor.Datapoint{StartTime: midnight + 29*3600 + 1800, Offset: cst, Sample: []float64{3}},
	))
	require.NoError(t, store.Put(ctx, "u1", "STEP_COUNT--org.md2k--PHONE--v2",
		sensor.Datapoint{StartTime: midnight + 13*3600, Offset: cst, Sample: []float64{5}},
	))

	loader := NewLoader(store, nil, testLogger())
	session, err := loader.Load(ctx, "u1", "2017-10-24", sensor.StepCount, sensor.Gyroscope)
	require.NoError(t, err)

	steps := session[sensor.StepCount]
	require.Len(t, steps, 2)
	assert.Equal(t, []float64{5}, steps[0].Sample, "streams are merged chronologically")
	assert.Equal(t, []float64{2}, steps[1].Sample)
	assert.Empty(t, session[sensor.Gyroscope])

	_, err = loader.Load(ctx, "u1", "24/10/2017", sensor.StepCount)
	assert.Error(t, err)
}

func TestLoaderFillsSparseStreams(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newMockRedis(), testLogger())

	// 2017-10-24T14:00:00Z, 09:00 local
	const start = 1508803200.0 + 14*3600
	const cst = -5 * 3600

	require.NoError(t, store.Put(ctx, "u1", "STEP_COUNT--org.md2k--PHONE",
		sensor.Datapoint{StartTime: start, Offset: cst, Sample: []float64{1}},
		sensor.Datapoint{StartTime: start + 3, Offset: cst, Sample: []float64{4}},
	))
	require.NoError(t, store.Put(ctx, "u1", "ACCELEROMETER--org.md2k--PHONE",
		sensor.Datapoint{StartTime: start, Offset: cst, Sample: []float64{0, 0, 1}},
		sensor.Datapoint{StartTime: start + 3, Offset: cst, Sample: []float64{0, 0, 1}},
	))

	loader := NewLoader(store, nil, testLogger()).WithFill(1, sensor.StepCount)
	session, err := loader.Load(ctx, "u1", "2017-10-24", sensor.StepCount, sensor.Accelerometer)
	require.NoError(t, err)

	steps := session[sensor.StepCount]
	require.Len(t, steps, 4)
	for i, want := range []float64{1, 1, 1, 4} {
		assert.Equal(t, start+float64(i), steps[i].StartTime)
		assert.Equal(t, []float64{want}, steps[i].Sample)
	}
	assert.Len(t, session[sensor.Accelerometer], 2, "sensors without fill are returned as stored")

	loader.WithFill(0, sensor.StepCount)
	session, err = loader.Load(ctx, "u1", "2017-10-24", sensor.StepCount)
	require.NoError(t, err)
	assert.Len(t, session[sensor.StepCount], 2)
}
