package extraction

import (
	"errors"
	"fmt"

	"github.com/saaga0h/atdesk-features/internal/features"
	"github.com/saaga0h/atdesk-features/internal/sensor"
	"github.com/saaga0h/atdesk-features/internal/window"
)

// ErrWindowMismatch is returned when sensor blocks disagree on the number of windows
var ErrWindowMismatch = errors.New("window count mismatch between sensors")

// Session holds the aligned sensor matrices of one session and the per-sample labels.
// All matrices and Labels have the same length.
type Session struct {
	Accel     sensor.Matrix
	Gyro      sensor.Matrix
	ActType   sensor.Matrix
	StepCount sensor.Matrix
	Labels    []int
}

// Result is the feature matrix of one session
type Result struct {
	Schema   []string
	Features [][]float64
	Labels   []int
}

// Build computes the session feature matrix [time | accel | gyro | act_type | step_cnt]
// and the per-window labels
func Build(s Session, opts Options, rec *features.Recorder) (*Result, error) {
	timeRows, err := TimeFeatures(s.Accel, opts)
	if err != nil {
		return nil, fmt.Errorf("time features: %w", err)
	}
	accelRows, err := TriaxialFeatures(prefixAccel, s.Accel, opts, rec)
	if err != nil {
		return nil, fmt.Errorf("accelerometer features: %w", err)
	}
	gyroRows, err := TriaxialFeatures(prefixGyro, s.Gyro, opts, rec)
	if err != nil {
		return nil, fmt.Errorf("gyroscope features: %w", err)
	}
	actRows, err := ActTypeFeatures(s.ActType, opts, rec)
	if err != nil {
		return nil, fmt.Errorf("activity type features: %w", err)
	}
	stepRows, err := StepCountFeatures(s.StepCount, opts, rec)
	if err != nil {
		return nil, fmt.Errorf("step count features: %w", err)
	}

	labels, err := WindowLabels(s.Labels, opts)
	if err != nil {
		return nil, fmt.Errorf("window labels: %w", err)
	}

	blocks := [][][]float64{timeRows, accelRows, gyroRows, actRows, stepRows}
	n := len(timeRows)
	for _, b := range blocks {
		if len(b) != n {
			return nil, fmt.Errorf("%w: %d/%d/%d/%d/%d", ErrWindowMismatch,
				len(timeRows), len(accelRows), len(gyroRows), len(actRows), len(stepRows))
		}
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d feature rows, %d label rows", ErrWindowMismatch, n, len(labels))
	}

	schema := Schema(opts)
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, 0, len(schema))
		for _, b := range blocks {
			row = append(row, b[i]...)
		}
		rows[i] = row
	}

	return &Result{Schema: schema, Features: rows, Labels: labels}, nil
}

// WindowLabels labels a window 1 when more than half of its samples are labelled 1
func WindowLabels(labels []int, opts Options) ([]int, error) {
	wins, err := window.Windows(labels, opts.WinLen, opts.OverlapLen)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(wins))
	for i, w := range wins {
		ones := 0
		for _, l := range w {
			if l == 1 {
				ones++
			}
		}
		if 2*ones > len(w) {
			out[i] = 1
		}
	}
	return out, nil
}
