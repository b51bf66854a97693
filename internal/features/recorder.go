package features

import (
	"log/slog"
	"math"
)

// FaultKind classifies a data-check failure
type FaultKind string

const (
	FaultMalformed  FaultKind = "malformed_input"
	FaultNaN        FaultKind = "nan_result"
	FaultOutOfRange FaultKind = "act_type_out_of_range"
)

// Fault is one data-check failure observed while computing a window's features
type Fault struct {
	Sensor  string    `json:"sensor"`
	Feature string    `json:"feature"`
	Window  int       `json:"window"`
	Kind    FaultKind `json:"kind"`
	Detail  string    `json:"detail,omitempty"`
}

// Recorder clamps feature values and keeps track of data-check failures.
// A Recorder belongs to one session and is not safe for concurrent use.
type Recorder struct {
	faults  []Fault
	clamped int
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Value clamps v. A NaN is recorded as a fault and replaced by 0 so the
// feature matrix stays finite.
func (r *Recorder) Value(sensor string, window int, feature string, v float64) float64 {
	if math.IsNaN(v) {
		r.Record(Fault{Sensor: sensor, Feature: feature, Window: window, Kind: FaultNaN})
		return 0
	}
	c := Clamp(v)
	if c != v {
		r.clamped++
	}
	return c
}

// Record stores a fault
func (r *Recorder) Record(f Fault) {
	r.faults = append(r.faults, f)
}

// Faults returns every recorded fault
func (r *Recorder) Faults() []Fault {
	return r.faults
}

// Clamped returns how many values were saturated or flushed
func (r *Recorder) Clamped() int {
	return r.clamped
}

// CountByKind groups the recorded faults by kind
func (r *Recorder) CountByKind() map[FaultKind]int {
	counts := make(map[FaultKind]int)
	for _, f := range r.faults {
		counts[f.Kind]++
	}
	return counts
}

// LogSummary reports the recorded faults; NaN results are logged at warn level
// since they point to a computation bug rather than bad input.
func (r *Recorder) LogSummary(logger *slog.Logger, args ...any) {
	counts := r.CountByKind()
	args = append(args,
		"clamped", r.clamped,
		"malformed", counts[FaultMalformed],
		"nan", counts[FaultNaN],
		"act_type_out_of_range", counts[FaultOutOfRange])

	if len(r.faults) == 0 {
		logger.Debug("Feature data check passed", args...)
		return
	}
	logger.Warn("Feature data check failures", args...)
	for _, f := range r.faults {
		if f.Kind == FaultNaN {
			logger.Warn("NaN feature value",
				"sensor", f.Sensor,
				"feature", f.Feature,
				"window", f.Window)
		}
	}
}
