package extraction

import (
	"fmt"

	"github.com/saaga0h/atdesk-features/internal/features"
)

// Sensor name prefixes used in feature column names
const (
	prefixTime    = "time"
	prefixAccel   = "accel"
	prefixGyro    = "gyro"
	prefixActType = "act_type"
	prefixStepCnt = "step_cnt"
)

type axisFeature struct {
	name string
	fn   func(w []float64, dt float64) float64
}

func plain(fn func([]float64) float64) func([]float64, float64) float64 {
	return func(w []float64, _ float64) float64 { return fn(w) }
}

// timeDomain is the ordered time-domain feature set of one channel
var timeDomain = []axisFeature{
	{"mean", plain(features.Mean)},
	{"mad", plain(features.MAD)},
	{"min", plain(features.Min)},
	{"max", plain(features.Max)},
	{"median", plain(features.Median)},
	{"var", plain(features.Variance)},
	{"std", plain(features.StdDev)},
	{"range", plain(features.Range)},
	{"abs_mean", plain(features.AbsMean)},
	{"coeff_var", plain(features.CoeffVar)},
	{"skew", plain(features.Skewness)},
	{"kurtosis", plain(features.Kurtosis)},
	{"q1", plain(features.Quartile1)},
	{"q3", plain(features.Quartile3)},
	{"iqr", plain(features.IQR)},
	{"mcr", plain(features.MCR)},
	{"rms", plain(features.RMS)},
	{"slope", plain(features.Slope)},
	{"integral", features.Integral},
}

// spectral is the ordered frequency-domain feature set of one channel
var spectral = []axisFeature{
	{"dc", plain(features.DCComponent)},
	{"energy", plain(features.Energy)},
	{"entropy", plain(features.Entropy)},
	{"dom_freq_ratio", plain(features.DomFreqRatio)},
}

// axisSet is the full per-axis feature set of triaxial sensors
var axisSet = append(append([]axisFeature(nil), timeDomain...), spectral...)

var axes = []string{"x", "y", "z"}

func featureNames(prefix string, set []axisFeature) []string {
	names := make([]string, 0, len(set))
	for _, f := range set {
		names = append(names, prefix+"_"+f.name)
	}
	return names
}

// TriaxialColumns returns the column names of an accelerometer or gyroscope block
func TriaxialColumns(prefix string) []string {
	var cols []string
	for _, axis := range axes {
		cols = append(cols, featureNames(prefix+"_"+axis, axisSet)...)
	}
	return append(cols, prefix+"_sma", prefix+"_svm")
}

// StepCountColumns returns the column names of the step count block
func StepCountColumns() []string {
	return featureNames(prefixStepCnt, timeDomain)
}

// ActTypeColumns returns the one-hot column names of the activity type block
func ActTypeColumns(numTypes int) []string {
	cols := make([]string, numTypes)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s_%d", prefixActType, i)
	}
	return cols
}

// TimeColumns returns the column names of the time-of-day block
func TimeColumns(daylight bool) []string {
	cols := []string{"is_weekday"}
	if daylight {
		cols = append(cols, "is_daylight")
	}
	return cols
}

// Schema returns the full feature matrix column list in Build order
func Schema(opts Options) []string {
	var cols []string
	cols = append(cols, TimeColumns(opts.Site != nil)...)
	cols = append(cols, TriaxialColumns(prefixAccel)...)
	cols = append(cols, TriaxialColumns(prefixGyro)...)
	cols = append(cols, ActTypeColumns(opts.NumActivityTypes)...)
	cols = append(cols, StepCountColumns()...)
	return cols
}
