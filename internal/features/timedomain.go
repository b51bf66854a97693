package features

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean
func Mean(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return stat.Mean(w, nil)
}

// MAD returns the median absolute deviation from the median
func MAD(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	dev := make([]float64, len(w))
	copy(dev, w)
	floats.AddConst(-Median(w), dev)
	for i, v := range dev {
		dev[i] = math.Abs(v)
	}
	return Median(dev)
}

// Min returns the smallest value
func Min(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return floats.Min(w)
}

// Max returns the largest value
func Max(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return floats.Max(w)
}

// Median returns the 50th percentile
func Median(w []float64) float64 {
	return Percentile(w, 50)
}

// Variance returns the population variance (divides by n)
func Variance(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return stat.PopVariance(w, nil)
}

// StdDev returns the population standard deviation
func StdDev(w []float64) float64 {
	return math.Sqrt(Variance(w))
}

// Range returns max - min
func Range(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return floats.Max(w) - floats.Min(w)
}

// AbsMean returns the mean of absolute values
func AbsMean(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return AbsArea(w) / float64(len(w))
}

// CoeffVar returns std/mean, or 0 when the mean is 0
func CoeffVar(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	mean := stat.Mean(w, nil)
	if mean == 0 {
		return 0
	}
	return StdDev(w) / mean
}

// Skewness returns the biased sample skewness m3 / m2^1.5, 0 for a constant window
func Skewness(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	m2 := stat.Moment(2, w, nil)
	if m2 == 0 {
		return 0
	}
	return stat.Moment(3, w, nil) / math.Pow(m2, 1.5)
}

// Kurtosis returns the biased excess kurtosis m4 / m2^2 - 3, 0 for a constant window
func Kurtosis(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	m2 := stat.Moment(2, w, nil)
	if m2 == 0 {
		return 0
	}
	return stat.Moment(4, w, nil)/(m2*m2) - 3
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between the closest ranks, index = p/100 * (n-1).
func Percentile(w []float64, p float64) float64 {
	if len(w) == 0 || p < 0 || p > 100 {
		return math.NaN()
	}
	sorted := slices.Clone(w)
	slices.Sort(sorted)

	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Quartile1 returns the 25th percentile
func Quartile1(w []float64) float64 {
	return Percentile(w, 25)
}

// Quartile3 returns the 75th percentile
func Quartile3(w []float64) float64 {
	return Percentile(w, 75)
}

// IQR returns the inter-quartile range
func IQR(w []float64) float64 {
	return Quartile3(w) - Quartile1(w)
}

// MCR counts how often the signal crosses its own mean.
// A value equal to the mean counts as below it.
func MCR(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	mean := stat.Mean(w, nil)
	crossed := 0
	below := w[0] <= mean
	for _, v := range w {
		if v <= mean && !below {
			below = true
			crossed++
		} else if v > mean && below {
			below = false
			crossed++
		}
	}
	return float64(crossed)
}

// RMS returns the root mean square
func RMS(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return math.Sqrt(floats.Dot(w, w) / float64(len(w)))
}

// Slope returns the change from first to last sample per step, 0 for one sample
func Slope(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	if len(w) == 1 {
		return 0
	}
	return (w[len(w)-1] - w[0]) / float64(len(w)-1)
}

// Integral returns the trapezoidal integral with sample spacing dt
func Integral(w []float64, dt float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	if len(w) == 1 {
		return 0
	}
	x := make([]float64, len(w))
	for i := range x {
		x[i] = float64(i) * dt
	}
	return integrate.Trapezoidal(x, w)
}

// AbsArea returns the sum of absolute values
func AbsArea(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	var total float64
	for _, v := range w {
		total += math.Abs(v)
	}
	return total
}

// RawEnergy returns the mean of squared values
func RawEnergy(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return floats.Dot(w, w) / float64(len(w))
}
