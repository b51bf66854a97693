package features

import (
	"fmt"
	"math"
)

// Mode returns the most frequent value in w after rounding to the nearest integer.
// Ties resolve to the smallest code.
func Mode(w []float64) (int, error) {
	if len(w) == 0 {
		return 0, fmt.Errorf("empty window: %w", ErrMalformedInput)
	}
	counts := make(map[int]int)
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("non-finite activity code: %w", ErrMalformedInput)
		}
		counts[int(math.Round(v))]++
	}

	best, bestCount := 0, -1
	for code, c := range counts {
		if c > bestCount || (c == bestCount && code < best) {
			best, bestCount = code, c
		}
	}
	return best, nil
}

// ActTypeOneHot encodes the window's mode activity code as a one-hot vector of
// length numTypes. A mode outside [0, numTypes) returns an all-zero vector and
// ErrActTypeOutOfRange.
func ActTypeOneHot(w []float64, numTypes int) ([]float64, error) {
	encoding := make([]float64, numTypes)
	mode, err := Mode(w)
	if err != nil {
		return encoding, err
	}
	if mode < 0 || mode >= numTypes {
		return encoding, fmt.Errorf("mode %d not in [0, %d): %w", mode, numTypes, ErrActTypeOutOfRange)
	}
	encoding[mode] = 1
	return encoding, nil
}
