package common

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistics shared across algorithms, backed by gonum

// Mean calculates the arithmetic mean of a slice
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopulationMeanStdDev returns the mean and the population (ddof=0) standard deviation
func PopulationMeanStdDev(data []float64) (mean, stdDev float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return data[0], 0
	}

	mean, variance := stat.MeanVariance(data, nil)
	// stat.MeanVariance is the unbiased estimator
	popVariance := variance * float64(n-1) / float64(n)
	if popVariance < 0 {
		popVariance = 0
	}
	return mean, math.Sqrt(popVariance)
}

// Median returns the median without modifying data, or 0 for an empty slice
func Median(data []float64) float64 {
	m, err := mstats.Median(data)
	if err != nil {
		return 0.0
	}
	return m
}

// Max returns the largest element, or 0 for an empty slice
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data)
}

// AllFinite reports whether no element is NaN or infinite
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ReplaceNonPositive returns a copy of data with every value <= 0 replaced by floor
func ReplaceNonPositive(data []float64, floor float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if v <= 0 {
			v = floor
		}
		out[i] = v
	}
	return out
}

// IsStrictlyIncreasing reports whether every element is larger than the previous one
func IsStrictlyIncreasing(data []float64) bool {
	for i := 1; i < len(data); i++ {
		if !(data[i] > data[i-1]) {
			return false
		}
	}
	return true
}
