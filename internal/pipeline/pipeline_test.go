package pipeline

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/atdesk-features/internal/align"
	"github.com/saaga0h/atdesk-features/internal/groundtruth"
	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/internal/sink"
	"github.com/saaga0h/atdesk-features/pkg/config"
	"github.com/saaga0h/atdesk-features/pkg/mqtt"
)

// 2017-10-24T09:00:00Z
const t0 = 1508835600.0

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.InterpFreq = 1
	cfg.WindowSizeSeconds = 10
	cfg.WindowOverlapSeconds = 0
	cfg.DayStartHour = 8
	cfg.DayEndHour = 10
	cfg.Workers = 2
	return cfg
}

func stream(start, end float64, offset int, sample func(i int) []float64) []sensor.Datapoint {
	var dps []sensor.Datapoint
	for i := 0; start+float64(i) <= end; i++ {
		ts := start + float64(i)
		dps = append(dps, sensor.Datapoint{StartTime: ts, EndTime: ts, Offset: offset, Sample: sample(i)})
	}
	return dps
}

// goodSession has four streams with different spans; their overlap is [t0+2.5, t0+95)
func goodSession(stepOffset int) map[sensor.Type][]sensor.Datapoint {
	return map[sensor.Type][]sensor.Datapoint{
		sensor.Accelerometer: stream(t0, t0+99, 0, func(i int) []float64 {
			return []float64{math.Sin(float64(i) / 3), math.Cos(float64(i) / 5), 0.98}
		}),
		sensor.Gyroscope: stream(t0+2.5, t0+120.5, 0, func(i int) []float64 {
			return []float64{0.01 * float64(i%7), -0.02, 0.5 * math.Sin(float64(i))}
		}),
		sensor.ActivityType: stream(t0+1, t0+95, 0, func(i int) []float64 {
			return []float64{float64(3 + i/50), 80}
		}),
		sensor.StepCount: stream(t0, t0+99, stepOffset, func(i int) []float64 {
			return []float64{float64(i % 5)}
		}),
	}
}

type fakeLoader struct {
	sessions map[string]map[sensor.Type][]sensor.Datapoint
	block    chan struct{}
}

func (f *fakeLoader) Load(ctx context.Context, userID, day string, types ...sensor.Type) (map[sensor.Type][]sensor.Datapoint, error) {
	if f.block != nil {
		<-f.block
	}
	out := make(map[sensor.Type][]sensor.Datapoint)
	for _, t := range types {
		out[t] = f.sessions[userID+"/"+day][t]
	}
	return out, nil
}

type memorySink struct {
	mu       sync.Mutex
	sessions []*sink.SessionArrays
	users    []*sink.UserFeatures
}

func (m *memorySink) SaveSession(ctx context.Context, s *sink.SessionArrays) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *memorySink) SaveUserFeatures(ctx context.Context, u *sink.UserFeatures) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
	return nil
}

var testIntervals = []align.LabeledInterval{{Start: t0 + 10, End: t0 + 40}}

func TestProcessEndToEnd(t *testing.T) {
	raw := goodSession(0)
	raw[sensor.Accelerometer][50].Sample = []float64{9, 0, 0}

	loader := &fakeLoader{sessions: map[string]map[sensor.Type][]sensor.Datapoint{"u1/2017-10-24": raw}}
	out := &memorySink{}
	p := NewProcessor(loader, out, testConfig(), testLogger())

	res, err := p.Process(context.Background(), uuid.New(), groundtruth.Session{UserID: "u1", Day: "2017-10-24"}, testIntervals)
	require.NoError(t, err)

	assert.Equal(t, align.Bounds{Start: t0 + 2.5, End: t0 + 95}, res.Bounds)
	assert.Equal(t, 93, res.Samples)
	assert.Equal(t, 1, res.Rejected[sensor.Accelerometer])

	require.Len(t, out.sessions, 1)
	arrays := out.sessions[0]
	assert.Len(t, arrays.Labels, 93)
	for _, typ := range sensor.SessionSensors {
		m := arrays.Sensors[typ]
		require.Len(t, m, 93, typ)
		assert.Equal(t, t0+2.5, m.First(), typ)
		assert.Equal(t, t0+94.5, m.Last(), typ)
	}

	require.Len(t, res.Features.Features, 9)
	assert.Equal(t, []int{0, 1, 1, 1, 0, 0, 0, 0, 0}, res.Features.Labels)
	for _, row := range res.Features.Features {
		require.Len(t, row, len(res.Features.Schema))
		for _, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
	assert.Empty(t, res.Faults)
}

func TestProcessErrors(t *testing.T) {
	missingGyro := goodSession(0)
	delete(missingGyro, sensor.Gyroscope)

	noOverlap := goodSession(0)
	noOverlap[sensor.Gyroscope] = stream(t0+200, t0+300, 0, func(int) []float64 { return []float64{0, 0, 0} })

	// stepping into the 10:00 local hour part way through the session
	misaligned := goodSession(3540)

	outsideHours := goodSession(0)
	for _, dps := range outsideHours {
		for i := range dps {
			dps[i].Offset = -6 * 3600
		}
	}

	tooShort := goodSession(0)
	tooShort[sensor.StepCount] = stream(t0, t0+8, 0, func(int) []float64 { return []float64{1} })

	tests := []struct {
		name    string
		session map[sensor.Type][]sensor.Datapoint
		wantErr error
	}{
		{"missing sensor", missingGyro, ErrEmptySession},
		{"no overlap", noOverlap, ErrEmptySession},
		{"misaligned after hour filter", misaligned, ErrAlignment},
		{"nothing in working hours", outsideHours, ErrEmptySession},
		{"shorter than a window", tooShort, ErrEmptySession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{sessions: map[string]map[sensor.Type][]sensor.Datapoint{"u1/2017-10-24": tt.session}}
			out := &memorySink{}
			p := NewProcessor(loader, out, testConfig(), testLogger())

			_, err := p.Process(context.Background(), uuid.New(), groundtruth.Session{UserID: "u1", Day: "2017-10-24"}, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, out.sessions, "nothing is written for a failed or skipped session")
		})
	}
}

const testRegistry = `
users:
  u1: ["2017-10-24", "2017-10-25"]
  u2: ["2017-10-24"]
ground_truth:
  u1:
    - start: 2017-10-24T09:00:10Z
      end: 2017-10-24T09:00:40Z
`

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func testRunner(t *testing.T, loader SessionLoader, out sink.Sink, pub Publisher) *Runner {
	t.Helper()
	reg, err := groundtruth.LoadFromBytes([]byte(testRegistry))
	require.NoError(t, err)
	cfg := testConfig()
	cfg.PublishEvents = true
	return NewRunner(reg, loader, out, pub, cfg, testLogger())
}

func testSessions() map[string]map[sensor.Type][]sensor.Datapoint {
	return map[string]map[sensor.Type][]sensor.Datapoint{
		"u1/2017-10-24": goodSession(0),
		"u2/2017-10-24": goodSession(3540),
	}
}

func TestRunnerSummary(t *testing.T) {
	out := &memorySink{}
	pub := &recordingPublisher{}
	runner := testRunner(t, &fakeLoader{sessions: testSessions()}, out, pub)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Sessions, 3)
	assert.Equal(t, StatusSucceeded, summary.Sessions[0].Status)
	assert.Equal(t, 9, summary.Sessions[0].Windows)
	assert.Equal(t, StatusSkipped, summary.Sessions[1].Status)
	assert.Equal(t, StatusFailed, summary.Sessions[2].Status)
	assert.Contains(t, summary.Sessions[2].Error, ErrAlignment.Error())

	require.Len(t, out.users, 1)
	u1 := out.users[0]
	assert.Equal(t, "u1", u1.UserID)
	assert.Equal(t, summary.RunID, u1.RunID)
	assert.Len(t, u1.Features, 9)
	assert.NoError(t, u1.Validate())
	assert.Equal(t, []int{0, 1, 1, 1, 0, 0, 0, 0, 0}, u1.Labels)

	assert.Equal(t, []UserReport{
		{UserID: "u1", Days: 1, Windows: 9},
		{UserID: "u2"},
	}, summary.Users)

	assert.Contains(t, pub.topics, mqtt.TopicSummary)
	assert.Contains(t, pub.topics, mqtt.SessionTopic("u2", "2017-10-24"))
	assert.Len(t, pub.topics, 4)
}

func TestRunnerUserFilter(t *testing.T) {
	out := &memorySink{}
	runner := testRunner(t, &fakeLoader{sessions: testSessions()}, out, nil)

	summary, err := runner.Run(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, summary.Sessions, 1)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, out.users)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := testRunner(t, &fakeLoader{sessions: testSessions()}, &memorySink{}, nil)
	_, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type mockMQTT struct {
	handlers map[string]mqtt.MessageHandler
}

func (m *mockMQTT) Connect(ctx context.Context) error { return nil }
func (m *mockMQTT) Disconnect()                       {}
func (m *mockMQTT) Subscribe(topic string, qos byte, h mqtt.MessageHandler) error {
	m.handlers[topic] = h
	return nil
}
func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error { return nil }
func (m *mockMQTT) IsConnected() bool                                                   { return true }

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string   { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
func (m *mockMessage) Ack()            {}

func TestCoordinatorTrigger(t *testing.T) {
	loader := &fakeLoader{sessions: testSessions(), block: make(chan struct{})}
	client := &mockMQTT{handlers: make(map[string]mqtt.MessageHandler)}
	coord := NewCoordinator(testRunner(t, loader, &memorySink{}, nil), client, testLogger())

	require.NoError(t, coord.Start(context.Background()))
	handler := client.handlers[mqtt.TopicRunTrigger]
	require.NotNil(t, handler)

	handler(&mockMessage{topic: mqtt.TopicRunTrigger, payload: []byte(`{"users":["u1"]}`)})
	assert.True(t, coord.BatchStatus().Running)

	_, err := coord.Trigger(context.Background())
	assert.Error(t, err, "a second batch is refused while one is running")

	close(loader.block)
	coord.Wait()

	summary := coord.LastSummary()
	require.NotNil(t, summary)
	assert.Len(t, summary.Sessions, 2)
	assert.Equal(t, 1, summary.Succeeded)

	status := coord.BatchStatus()
	assert.False(t, status.Running)
	assert.Equal(t, summary.RunID.String(), status.LastRunID)
}
