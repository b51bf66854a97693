package window

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned for a non-positive length or an overlap outside [0, winLen)
var ErrInvalidWindow = errors.New("invalid window parameters")

func check(winLen, overlapLen int) error {
	if winLen <= 0 {
		return fmt.Errorf("window length %d: %w", winLen, ErrInvalidWindow)
	}
	if overlapLen < 0 || overlapLen >= winLen {
		return fmt.Errorf("overlap %d with window length %d: %w", overlapLen, winLen, ErrInvalidWindow)
	}
	return nil
}

// Count returns how many full windows fit in a sequence of length n
func Count(n, winLen, overlapLen int) int {
	if check(winLen, overlapLen) != nil || n < winLen {
		return 0
	}
	return (n-winLen)/(winLen-overlapLen) + 1
}

// Starts returns the start offset of every full window
func Starts(n, winLen, overlapLen int) ([]int, error) {
	if err := check(winLen, overlapLen); err != nil {
		return nil, err
	}
	step := winLen - overlapLen
	starts := make([]int, 0, Count(n, winLen, overlapLen))
	for start := 0; start+winLen <= n; start += step {
		starts = append(starts, start)
	}
	return starts, nil
}

// Windows slices seq into full windows of winLen items, consecutive windows sharing
// overlapLen items. A trailing partial window is dropped. The returned windows
// alias seq.
func Windows[T any](seq []T, winLen, overlapLen int) ([][]T, error) {
	starts, err := Starts(len(seq), winLen, overlapLen)
	if err != nil {
		return nil, err
	}
	wins := make([][]T, len(starts))
	for i, start := range starts {
		wins[i] = seq[start : start+winLen : start+winLen]
	}
	return wins, nil
}
