package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// Histogram is a fixed-bin histogram over [0, max(values)]
type Histogram struct {
	Counts   []float64 `json:"counts"`
	Centers  []float64 `json:"centers"`
	Edges    []float64 `json:"edges"` // len(Counts)+1 bin boundaries
	BinWidth float64   `json:"bin_width"`
}

// NewHistogram bins non-negative values into bins equal-width bins starting at zero.
// The maximum value falls in the last bin. values is not modified.
func NewHistogram(values []float64, bins int) (*Histogram, error) {
	const op = "stats.NewHistogram"

	if bins <= 0 {
		return nil, common.InvalidInput(op, "bin count must be positive, got %d", bins)
	}
	if len(values) == 0 {
		return nil, common.InsufficientData(op, "no values to histogram")
	}
	if !common.AllFinite(values) {
		return nil, common.InvalidInput(op, "values contain NaN or Inf")
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if sorted[0] < 0 {
		return nil, common.InvalidInput(op, "negative value %v", sorted[0])
	}
	upper := sorted[len(sorted)-1]
	if upper <= 0 {
		return nil, common.InvalidInput(op, "maximum value must be positive, got %v", upper)
	}

	edges := floats.Span(make([]float64, bins+1), 0, upper)

	// stat.Histogram bins on half-open intervals; widen the last one so max is counted
	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(upper, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	centers := make([]float64, bins)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}

	return &Histogram{
		Counts:   counts,
		Centers:  centers,
		Edges:    edges,
		BinWidth: upper / float64(bins),
	}, nil
}

// Total returns the number of binned values
func (h *Histogram) Total() float64 {
	return floats.Sum(h.Counts)
}
