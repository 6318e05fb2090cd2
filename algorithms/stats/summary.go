package stats

import (
	"slices"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// DwellSummary holds descriptive statistics of event durations
type DwellSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	StdDev float64 `json:"std_dev"` // population
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes a DwellSummary of durations. Percentiles interpolate linearly
// between order statistics, so any non-empty input has a summary.
func Summarize(durations []float64) (*DwellSummary, error) {
	const op = "stats.Summarize"

	if len(durations) == 0 {
		return nil, common.InsufficientData(op, "no durations")
	}
	if !common.AllFinite(durations) {
		return nil, common.InvalidInput(op, "durations contain NaN or Inf")
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	data := mstats.LoadRawData(sorted)
	summary := &DwellSummary{
		Count: len(sorted),
		P25:   stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		P75:   stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		P95:   stat.Quantile(0.95, stat.LinInterp, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	steps := []struct {
		name string
		dst  *float64
		fn   func(mstats.Float64Data) (float64, error)
	}{
		{"mean", &summary.Mean, mstats.Mean},
		{"median", &summary.Median, mstats.Median},
		{"std_dev", &summary.StdDev, mstats.StandardDeviationPopulation},
	}
	for _, s := range steps {
		v, err := s.fn(data)
		if err != nil {
			return nil, common.InsufficientData(op, "failed to compute %s: %v", s.name, err)
		}
		*s.dst = v
	}

	return summary, nil
}
