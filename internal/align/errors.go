package align

import "errors"

var (
	// ErrEmptyResult is returned when the time-range filter keeps no rows
	ErrEmptyResult = errors.New("no rows within the configured hour range")

	// ErrNoOverlap is returned when the sensor time spans do not intersect
	ErrNoOverlap = errors.New("sensor time spans do not overlap")

	// ErrTooFewRows is returned when a series has fewer than two samples
	ErrTooFewRows = errors.New("series needs at least two rows to resample")

	// ErrUnsorted is returned when a series is not ordered by timestamp
	ErrUnsorted = errors.New("series timestamps are not sorted")

	// ErrOutOfRange is returned when a grid timestamp would require extrapolation
	ErrOutOfRange = errors.New("grid timestamp outside the series span")
)
