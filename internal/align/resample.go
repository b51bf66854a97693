package align

import (
	"fmt"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// Resample maps a series onto grid with zero-order hold: every column after the
// timestamp takes the value of the latest original row at or before the grid tick.
// The grid must lie within the series span; extrapolation is an error.
func Resample(m sensor.Matrix, grid TimeGrid) (sensor.Matrix, error) {
	if m.Len() < 2 {
		return nil, ErrTooFewRows
	}
	for i := 1; i < m.Len(); i++ {
		if m[i][sensor.ColTimestamp] < m[i-1][sensor.ColTimestamp] {
			return nil, fmt.Errorf("row %d: %w", i, ErrUnsorted)
		}
	}
	if len(grid) == 0 {
		return sensor.Matrix{}, nil
	}
	if grid[0] < m.First() || grid[len(grid)-1] > m.Last() {
		return nil, fmt.Errorf("grid [%f, %f] vs series [%f, %f]: %w",
			grid[0], grid[len(grid)-1], m.First(), m.Last(), ErrOutOfRange)
	}

	out := make(sensor.Matrix, len(grid))
	src := 0
	for i, t := range grid {
		if i > 0 && t <= grid[i-1] {
			return nil, fmt.Errorf("grid tick %d: %w", i, ErrUnsorted)
		}
		for src+1 < m.Len() && m[src+1][sensor.ColTimestamp] <= t {
			src++
		}

		row := make([]float64, len(m[src]))
		row[sensor.ColTimestamp] = t
		copy(row[1:], m[src][1:])
		out[i] = row
	}
	return out, nil
}
