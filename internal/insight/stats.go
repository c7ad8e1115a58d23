package insight

import (
	"math"
	"sort"
)

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}

	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return sum(values) / float64(len(values))
}

// sampleStdDev uses the n-1 denominator. A single observation has no spread
// and yields 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	var ss float64

	for _, v := range values {
		d := v - m
		ss += d * d
	}

	return math.Sqrt(ss / float64(len(values)-1))
}

// quantile computes the q-th quantile with linear interpolation between the
// two nearest order statistics. values need not be sorted.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))

	if lower == upper {
		return sorted[lower]
	}

	frac := pos - float64(lower)

	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func median(values []float64) float64 {
	return quantile(values, 0.5)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
