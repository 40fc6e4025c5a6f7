package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram is a weighted histogram with per-bin uncertainty
type Histogram struct {
	Edges       []float64 `json:"edges"` // len(Counts)+1
	Counts      []float64 `json:"counts"`
	Uncertainty []float64 `json:"uncertainty"` // sqrt of the Σw² in each bin
}

// WeightedHistogram bins values into equal-width bins spanning their range.
// The upper edge is inclusive, matching the usual data-range histogram.
func WeightedHistogram(values, weights []float64, bins int) Histogram {
	if bins < 1 {
		bins = 10
	}

	var x, w []float64
	for i, v := range values {
		if i < len(weights) && !math.IsNaN(v) && !math.IsNaN(weights[i]) {
			x = append(x, v)
			w = append(w, weights[i])
		}
	}

	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]float64, bins), Uncertainty: make([]float64, bins)}
	if len(x) == 0 {
		return h
	}

	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	floats.Span(h.Edges, lo, hi)

	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })
	sx := make([]float64, len(x))
	sw := make([]float64, len(x))
	sw2 := make([]float64, len(x))
	for i, j := range order {
		sx[i], sw[i], sw2[i] = x[j], w[j], w[j]*w[j]
	}

	dividers := append([]float64(nil), h.Edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	stat.Histogram(h.Counts, dividers, sx, sw)

	sq := make([]float64, bins)
	stat.Histogram(sq, dividers, sx, sw2)
	for i, v := range sq {
		h.Uncertainty[i] = math.Sqrt(v)
	}
	return h
}

// Centers returns the midpoint of each bin
func (h Histogram) Centers() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range out {
		out[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return out
}
