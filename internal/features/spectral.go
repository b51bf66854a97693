package features

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Magnitudes returns |X[k]| for the full n-point complex DFT of w
func Magnitudes(w []float64) []float64 {
	if len(w) == 0 {
		return nil
	}
	seq := make([]complex128, len(w))
	for i, v := range w {
		seq[i] = complex(v, 0)
	}
	coeffs := fourier.NewCmplxFFT(len(w)).Coefficients(nil, seq)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}

// DCComponent returns the magnitude of bin 0
func DCComponent(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	return Magnitudes(w)[0]
}

// Energy sums squared magnitudes over the first (n+1)/2 bins so the
// mirrored half of a real signal's spectrum is not counted twice.
func Energy(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	mags := Magnitudes(w)
	half := (len(mags) + 1) / 2
	return floats.Dot(mags[:half], mags[:half])
}

// Entropy returns the spectral entropy -sum(p*ln p) of the normalized PSD.
// A zero PSD total and zero probability bins are replaced by MinVal, so every
// empty bin contributes -MinVal*ln(MinVal).
func Entropy(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	mags := Magnitudes(w)
	n := float64(len(w))

	psd := make([]float64, len(mags))
	for i, m := range mags {
		psd[i] = m * m / n
	}
	total := floats.Sum(psd)
	if total == 0 {
		total = MinVal
	}

	var entropy float64
	for _, v := range psd {
		p := v / total
		if p <= 0 {
			p = MinVal
		}
		entropy -= p * math.Log(p)
	}
	return entropy
}

// DomFreqRatio returns max|X| / sum|X|, 0 when the spectrum is all zero
func DomFreqRatio(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	mags := Magnitudes(w)
	div := floats.Sum(mags)
	if div == 0 {
		return 0
	}
	return floats.Max(mags) / div
}
