package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/atdesk-features/internal/features"
	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// 2017-10-24T14:00:00Z, a Tuesday
const tuesday = 1508853600.0

const cdt = -5 * 3600

func matrix(n int, start float64, sample ...float64) sensor.Matrix {
	m := make(sensor.Matrix, n)
	for i := range m {
		ts := start + float64(i)
		m[i] = append([]float64{ts, ts, cdt}, sample...)
	}
	return m
}

func testOptions() Options {
	return Options{Freq: 1, WinLen: 10, OverlapLen: 0, NumActivityTypes: 8}
}

func testSession(n int) Session {
	labels := make([]int, n)
	for i := 0; i < 12 && i < n; i++ {
		labels[i] = 1
	}
	return Session{
		Accel:     matrix(n, tuesday, 1, 2, 3),
		Gyro:      matrix(n, tuesday, 0, 0, 0),
		ActType:   matrix(n, tuesday, 3, 90),
		StepCount: matrix(n, tuesday, 4),
		Labels:    labels,
	}
}

func column(t *testing.T, res *Result, name string) []float64 {
	t.Helper()
	for i, c := range res.Schema {
		if c == name {
			col := make([]float64, len(res.Features))
			for r, row := range res.Features {
				col[r] = row[i]
			}
			return col
		}
	}
	require.FailNow(t, "missing column", name)
	return nil
}

func TestSchema(t *testing.T) {
	assert.Len(t, TriaxialColumns("accel"), 71)
	assert.Len(t, StepCountColumns(), 19)
	assert.Equal(t, []string{"act_type_0", "act_type_1"}, ActTypeColumns(2))

	schema := Schema(testOptions())
	assert.Len(t, schema, 1+71+71+8+19)
	assert.Equal(t, "is_weekday", schema[0])
	assert.Equal(t, "accel_x_mean", schema[1])
	assert.Equal(t, "accel_x_dom_freq_ratio", schema[23])
	assert.Equal(t, "accel_svm", schema[71])
	assert.Equal(t, "step_cnt_integral", schema[len(schema)-1])

	seen := make(map[string]bool)
	for _, c := range schema {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
	}

	withSite := testOptions()
	withSite.Site = &Site{Latitude: 41.88, Longitude: -87.63}
	assert.Equal(t, []string{"is_weekday", "is_daylight"}, Schema(withSite)[:2])
}

func TestBuild(t *testing.T) {
	rec := features.NewRecorder()
	res, err := Build(testSession(25), testOptions(), rec)
	require.NoError(t, err)

	require.Len(t, res.Features, 2, "partial tail window is dropped")
	for _, row := range res.Features {
		assert.Len(t, row, len(res.Schema))
	}
	assert.Equal(t, []int{1, 0}, res.Labels)

	assert.Equal(t, []float64{1, 1}, column(t, res, "is_weekday"))
	assert.Equal(t, []float64{1, 1}, column(t, res, "accel_x_mean"))
	assert.Equal(t, []float64{3, 3}, column(t, res, "accel_z_max"))
	assert.Equal(t, []float64{0, 0}, column(t, res, "accel_y_std"))
	assert.Equal(t, []float64{9, 9}, column(t, res, "accel_x_integral"))
	assert.Equal(t, []float64{1, 1}, column(t, res, "act_type_3"))
	assert.Equal(t, []float64{0, 0}, column(t, res, "act_type_0"))
	assert.Equal(t, []float64{4, 4}, column(t, res, "step_cnt_median"))
	assert.Equal(t, []float64{0, 0}, column(t, res, "gyro_z_dom_freq_ratio"))
	assert.Empty(t, rec.Faults())
}

func TestBuildIntegralUsesSamplePeriod(t *testing.T) {
	opts := testOptions()
	opts.Freq = 10
	res, err := Build(testSession(10), opts, features.NewRecorder())
	require.NoError(t, err)
	assert.InDelta(t, 0.9, column(t, res, "accel_x_integral")[0], 1e-12)
}

func TestBuildWindowMismatch(t *testing.T) {
	s := testSession(25)
	s.Gyro = s.Gyro[:15]

	_, err := Build(s, testOptions(), features.NewRecorder())
	assert.ErrorIs(t, err, ErrWindowMismatch)
}

func TestBuildInvalidWindow(t *testing.T) {
	opts := testOptions()
	opts.OverlapLen = opts.WinLen

	_, err := Build(testSession(25), opts, features.NewRecorder())
	assert.Error(t, err)
}

func TestActTypeOutOfRangeRecorded(t *testing.T) {
	rec := features.NewRecorder()
	rows, err := ActTypeFeatures(matrix(10, tuesday, 9, 50), testOptions(), rec)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, make([]float64, 8), rows[0])
	assert.Equal(t, 1, rec.CountByKind()[features.FaultOutOfRange])
}

func TestTimeFeatures(t *testing.T) {
	opts := testOptions()
	opts.Site = &Site{Latitude: 41.88, Longitude: -87.63}

	// 2017-10-28T14:00:00Z is a Saturday morning in Chicago
	saturday := tuesday + 4*86400
	// 2017-10-25T04:00:00Z is Tuesday 23:00 local
	night := tuesday + 14*3600

	tests := []struct {
		name  string
		start float64
		want  []float64
	}{
		{"weekday morning", tuesday, []float64{1, 1}},
		{"saturday morning", saturday, []float64{0, 1}},
		{"weekday night", night, []float64{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := TimeFeatures(matrix(10, tt.start, 0), opts)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0])
		})
	}
}

func TestWindowLabels(t *testing.T) {
	opts := Options{WinLen: 4, OverlapLen: 2}
	labels := []int{1, 1, 1, 0, 0, 1, 0, 0}

	got, err := WindowLabels(labels, opts)
	require.NoError(t, err)
	// windows [1 1 1 0] [1 0 0 1] [0 1 0 0]; a tie is not a majority
	assert.Equal(t, []int{1, 0, 0}, got)
}
