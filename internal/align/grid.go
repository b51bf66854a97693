package align

import (
	"fmt"
	"math"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

// TimeGrid is a strictly increasing sequence of timestamps with fixed spacing
type TimeGrid []float64

// Bounds is the half-open time span [Start, End) a grid was derived from
type Bounds struct {
	Start float64
	End   float64
}

// NewGrid builds the timestamps start, start+1/freq, ... strictly below end.
// Timestamps are computed from the tick index so spacing does not drift.
func NewGrid(start, end, freq float64) (TimeGrid, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("grid frequency must be positive, got %f", freq)
	}
	if end <= start {
		return TimeGrid{}, nil
	}

	n := int(math.Ceil((end - start) * freq))
	grid := make(TimeGrid, 0, n)
	for i := 0; i < n; i++ {
		t := start + float64(i)/freq
		if t >= end {
			break
		}
		grid = append(grid, t)
	}
	return grid, nil
}

// IntersectBounds returns [max(first ts), min(last ts)) across the matrices
func IntersectBounds(matrices ...sensor.Matrix) (Bounds, error) {
	if len(matrices) == 0 {
		return Bounds{}, ErrNoOverlap
	}

	b := Bounds{Start: math.Inf(-1), End: math.Inf(1)}
	for _, m := range matrices {
		if m.Len() == 0 {
			return Bounds{}, ErrNoOverlap
		}
		b.Start = math.Max(b.Start, m.First())
		b.End = math.Min(b.End, m.Last())
	}
	if b.End <= b.Start {
		return b, ErrNoOverlap
	}
	return b, nil
}

// DeriveGrid builds the common session grid over the intersection of all sensor spans
func DeriveGrid(freq float64, matrices ...sensor.Matrix) (TimeGrid, Bounds, error) {
	b, err := IntersectBounds(matrices...)
	if err != nil {
		return nil, b, err
	}

	grid, err := NewGrid(b.Start, b.End, freq)
	if err != nil {
		return nil, b, err
	}
	if len(grid) == 0 {
		return nil, b, ErrNoOverlap
	}
	return grid, b, nil
}
