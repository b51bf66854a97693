package align

import (
	"math"
	"time"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// LocalTime converts an epoch timestamp plus UTC offset into wall-clock time.
// The result is expressed in UTC so that Hour/Weekday read the local values.
func LocalTime(ts float64, offsetSeconds int) time.Time {
	sec, frac := math.Modf(ts)
	t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return t.Add(time.Duration(offsetSeconds) * time.Second)
}

// FilterHours keeps rows whose local hour h satisfies startHour <= h < endHour.
// Row order is preserved. No matching row yields ErrEmptyResult.
func FilterHours(m sensor.Matrix, startHour, endHour int) (sensor.Matrix, error) {
	out := make(sensor.Matrix, 0, m.Len())
	for _, row := range m {
		hour := LocalTime(row[sensor.ColTimestamp], int(row[sensor.ColOffset])).Hour()
		if hour >= startHour && hour < endHour {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}
