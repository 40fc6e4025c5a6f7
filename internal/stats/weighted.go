// Package stats provides the weighted statistics used to summarise survey
// populations by ton-miles.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is a weighted population summary of one quantity
type Summary struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std"`
	TotalWeight float64 `json:"total_weight"`
	Uncertainty float64 `json:"uncertainty"` // root sum of squared weights
	Count       int     `json:"count"`
}

// Sum returns the sum of all values
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// RootSumSquares returns sqrt(Σw²), the statistical uncertainty on Σw
func RootSumSquares(weights []float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	return floats.Norm(weights, 2)
}

// WeightedMean calculates Σwq / Σw. It reports false when the total weight is zero.
func WeightedMean(values, weights []float64) (float64, bool) {
	if len(values) == 0 || floats.Sum(weights) == 0 {
		return 0, false
	}
	return stat.Mean(values, weights), true
}

// WeightedStdDev calculates the population standard deviation
// sqrt(Σw(q-μ)² / Σw)
func WeightedStdDev(values, weights []float64) (float64, bool) {
	if len(values) == 0 || floats.Sum(weights) == 0 {
		return 0, false
	}
	_, std := stat.PopMeanStdDev(values, weights)
	return std, true
}

// Summarize returns the weighted mean, population stdev and weight totals.
// Pairs with a NaN value or a non-positive weight are skipped.
func Summarize(values, weights []float64) Summary {
	var q, w []float64
	for i, v := range values {
		if i >= len(weights) {
			break
		}
		if math.IsNaN(v) || math.IsNaN(weights[i]) || weights[i] <= 0 {
			continue
		}
		q = append(q, v)
		w = append(w, weights[i])
	}

	s := Summary{Count: len(q), TotalWeight: floats.Sum(w), Uncertainty: RootSumSquares(w)}
	if s.TotalWeight == 0 {
		s.Mean = math.NaN()
		s.StdDev = math.NaN()
		return s
	}
	s.Mean, s.StdDev = stat.PopMeanStdDev(q, w)
	return s
}

// Normalize divides each value by the total, returning the total.
// A zero total leaves the slice untouched.
func Normalize(values []float64) float64 {
	total := floats.Sum(values)
	if total != 0 {
		floats.Scale(1/total, values)
	}
	return total
}
