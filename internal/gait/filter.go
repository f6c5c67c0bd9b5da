package gait

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MovingAverage applies a centred, zero-padded moving-average filter and
// returns a series of the same length. window values below 2 return the
// input unchanged.
func MovingAverage(s []float64, window int) []float64 {
	if window <= 1 || len(s) == 0 {
		return s
	}
	out := make([]float64, len(s))
	inv := 1.0 / float64(window)
	for i := range s {
		lo := i - window/2
		hi := lo + window
		var sum float64
		for j := lo; j < hi; j++ {
			if j >= 0 && j < len(s) {
				sum += s[j]
			}
		}
		out[i] = sum * inv
	}
	return out
}

// quantileNonZero returns the q-quantile of the strictly positive values of
// s. The second return is false when s has no positive value.
func quantileNonZero(s []float64, q float64) (float64, bool) {
	nz := make([]float64, 0, len(s))
	for _, v := range s {
		if v > 0 {
			nz = append(nz, v)
		}
	}
	if len(nz) == 0 {
		return 0, false
	}
	sort.Float64s(nz)
	return stat.Quantile(q, stat.Empirical, nz, nil), true
}

// gradient computes the finite-difference derivative of y with respect to t,
// using central differences in the interior and one-sided differences at the
// ends. Slices must have equal length >= 2.
func gradient(y, t []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = safeDiv(y[1]-y[0], t[1]-t[0])
	out[n-1] = safeDiv(y[n-1]-y[n-2], t[n-1]-t[n-2])
	for i := 1; i < n-1; i++ {
		out[i] = safeDiv(y[i+1]-y[i-1], t[i+1]-t[i-1])
	}
	return out
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(s, nil)
}
