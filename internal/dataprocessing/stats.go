package dataprocessing

import (
	"math"
	"sort"
)

// The statistics helpers skip NaN values and return NaN when there is not
// enough data, so empty or degenerate tables never raise.

// finite returns the non-NaN values of values
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Count returns the number of non-NaN values
func Count(values []float64) int {
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Mean returns the arithmetic mean
func Mean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// StdDev returns the sample standard deviation (n-1 denominator)
func StdDev(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) {
		return math.NaN()
	}

	sumSquaredDiff := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		diff := v - mean
		sumSquaredDiff += diff * diff
		n++
	}
	if n <= 1 {
		return math.NaN()
	}
	return math.Sqrt(sumSquaredDiff / float64(n-1))
}

// Min returns the smallest value
func Min(values []float64) float64 {
	m := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value
func Max(values []float64) float64 {
	m := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v > m {
			m = v
		}
	}
	return m
}

// Median returns the 50th percentile
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Quantile returns the q-th quantile (0 <= q <= 1) using linear
// interpolation between the closest ranks.
func Quantile(values []float64, q float64) float64 {
	sorted := finite(values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

// Quantiles returns several quantiles with a single sort
func Quantiles(values []float64, qs ...float64) []float64 {
	sorted := finite(values)
	sort.Float64s(sorted)
	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = quantileSorted(sorted, q)
	}
	return out
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(q) {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	index := q * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Pearson returns the correlation coefficient of x and y over the pairs where
// both values are present. Constant inputs have no defined correlation.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}

	var sumX, sumY float64
	n := 0
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		sumX += x[i]
		sumY += y[i]
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sumXY, sumXX, sumYY float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}
	if sumXX == 0 || sumYY == 0 {
		return math.NaN()
	}

	r := sumXY / math.Sqrt(sumXX*sumYY)
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r))
}
