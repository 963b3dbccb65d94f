package core

import (
	"math"
	"sort"
)

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	mean := CalculateMean(data)

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// CalculateMean returns the arithmetic mean, 0 for an empty slice.
// Callers that must distinguish "no data" use CalculateMeanOptional.
func CalculateMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// -----------------------------------------------------------------------------

// CalculateMeanOptional returns nil for an empty slice.
func CalculateMeanOptional(data []float64) *float64 {
	if len(data) == 0 {
		return nil
	}
	mean := CalculateMean(data)
	return &mean
}

// -----------------------------------------------------------------------------

// CalculateMedian returns the median without reordering data.
// Even-length input averages the two middle values.
func CalculateMedian(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// -----------------------------------------------------------------------------

// CalculateMin returns the smallest value, 0 for an empty slice.
func CalculateMin(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	lowest := data[0]
	for _, v := range data[1:] {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}
