package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SignalMagnitudeArea returns the summed absolute area of three axes
func SignalMagnitudeArea(x, y, z []float64) float64 {
	if CheckAxes(x, y, z) != nil {
		return math.NaN()
	}
	return AbsArea(x) + AbsArea(y) + AbsArea(z)
}

// SignalVectorMagnitude returns the mean Euclidean norm of the per-sample (x, y, z) vector
func SignalVectorMagnitude(x, y, z []float64) float64 {
	if CheckAxes(x, y, z) != nil {
		return math.NaN()
	}
	var total float64
	for i := range x {
		total += math.Sqrt(x[i]*x[i] + y[i]*y[i] + z[i]*z[i])
	}
	return total / float64(len(x))
}

// Correlation returns the Pearson coefficient of two windows, 0 if either is constant
func Correlation(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}
	if stat.PopVariance(a, nil) == 0 || stat.PopVariance(b, nil) == 0 {
		return 0
	}
	return stat.Correlation(a, b, nil)
}
