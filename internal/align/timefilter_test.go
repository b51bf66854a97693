package align

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

func TestLocalTime(t *testing.T) {
	ts := float64(time.Date(2017, 11, 28, 14, 30, 0, 0, time.UTC).Unix())
	local := LocalTime(ts, -6*3600)
	assert.Equal(t, 8, local.Hour())
	assert.Equal(t, 30, local.Minute())
	assert.Equal(t, time.Tuesday, local.Weekday())
}

func TestFilterHours(t *testing.T) {
	day := time.Date(2017, 11, 28, 0, 0, 0, 0, time.UTC)
	at := func(h int) float64 { return float64(day.Add(time.Duration(h) * time.Hour).Unix()) }

	// offset of -1h: UTC hour 9 is local hour 8
	m := sensor.Matrix{
		{at(7), 0, -3600, 1},
		{at(9), 0, -3600, 2},
		{at(15), 0, -3600, 3},
		{at(20), 0, -3600, 4},
		{at(21), 0, -3600, 5},
	}

	out, err := FilterHours(m, 8, 20)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float64{2, 3, 4}, out.Channel(0), "order preserved, end hour exclusive")
}

func TestFilterHoursEmpty(t *testing.T) {
	m := sensor.Matrix{{0, 0, 0, 1}, {60, 0, 0, 1}}
	_, err := FilterHours(m, 8, 20)
	assert.ErrorIs(t, err, ErrEmptyResult)
}
