// Package features implements the per-window statistics used to describe
// wearable sensor signals. Every function is pure and works on a single window.
// Malformed input (an empty window, mismatched axis lengths) yields NaN; callers
// check shapes with CheckWindow/CheckAxes and route results through a Recorder.
package features

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxVal is the saturation bound applied to every scalar feature
	MaxVal = 1e6
	// MinVal is the smallest non-zero magnitude a feature may take
	MinVal = 1e-6
)

var (
	// ErrMalformedInput is returned for windows that cannot be described
	ErrMalformedInput = errors.New("malformed feature input")

	// ErrActTypeOutOfRange is returned when an activity type mode falls outside the encoding
	ErrActTypeOutOfRange = errors.New("activity type out of range")
)

// Clamp bounds the magnitude of v to [MinVal, MaxVal], keeping its sign.
// An exact 0 stays 0 and NaN is returned unchanged so that callers can report it.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v == 0:
		return v
	case v > MaxVal:
		return MaxVal
	case v < -MaxVal:
		return -MaxVal
	case v > 0 && v < MinVal:
		return MinVal
	case v < 0 && v > -MinVal:
		return -MinVal
	default:
		return v
	}
}

// CheckWindow verifies a single-channel window is usable
func CheckWindow(w []float64) error {
	if len(w) == 0 {
		return fmt.Errorf("empty window: %w", ErrMalformedInput)
	}
	return nil
}

// CheckAxes verifies three axis windows are non-empty and equally long
func CheckAxes(x, y, z []float64) error {
	if len(x) == 0 || len(y) == 0 || len(z) == 0 {
		return fmt.Errorf("empty axis window: %w", ErrMalformedInput)
	}
	if len(x) != len(y) || len(x) != len(z) {
		return fmt.Errorf("axis lengths %d/%d/%d differ: %w", len(x), len(y), len(z), ErrMalformedInput)
	}
	return nil
}
