package recording

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// Format identifies the container a recording was read from
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatText  Format = "text" // whitespace separated columns
	FormatExcel Format = "xlsx"
)

// Sweep is one current trace sampled at the recording's time points
type Sweep struct {
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Times      []float64 `json:"-"` // seconds
	Amplitudes []float64 `json:"-"` // pA, sign-flipped when the loader inverts
}

// Len returns the number of samples in the sweep
func (s Sweep) Len() int {
	return len(s.Amplitudes)
}

// Recording is a multi-sweep trace sharing one time base
type Recording struct {
	Source      string          `json:"source"`
	Format      Format          `json:"format"`
	Compression CompressionType `json:"compression"`
	SampleRate  float64         `json:"sample_rate"`
	Inverted    bool            `json:"inverted"`
	Sweeps      []Sweep         `json:"sweeps"`
}

// Duration returns the time span covered by the first sweep in seconds
func (r *Recording) Duration() float64 {
	if len(r.Sweeps) == 0 || len(r.Sweeps[0].Times) == 0 {
		return 0
	}
	times := r.Sweeps[0].Times
	return times[len(times)-1] - times[0]
}

// Samples returns the number of samples per sweep
func (r *Recording) Samples() int {
	if len(r.Sweeps) == 0 {
		return 0
	}
	return r.Sweeps[0].Len()
}

// FromArrays builds a single-sweep recording from in-memory arrays.
// A sampleRate of zero is derived from the time column.
func FromArrays(source string, times, amplitudes []float64, sampleRate float64) (*Recording, error) {
	const op = "recording.FromArrays"

	if len(times) != len(amplitudes) {
		return nil, common.InvalidInput(op, "times (%d) and amplitudes (%d) lengths differ", len(times), len(amplitudes))
	}
	if err := validateTimeBase(op, times); err != nil {
		return nil, err
	}
	if !common.AllFinite(amplitudes) {
		return nil, common.InvalidInput(op, "amplitudes contain NaN or Inf")
	}

	rate, err := resolveSampleRate(op, times, sampleRate)
	if err != nil {
		return nil, err
	}

	return &Recording{
		Source:     source,
		SampleRate: rate,
		Sweeps: []Sweep{{
			Name:       "sweep_0",
			Times:      times,
			Amplitudes: amplitudes,
		}},
	}, nil
}

func validateTimeBase(op string, times []float64) error {
	if len(times) < 2 {
		return common.InvalidInput(op, "need at least 2 samples, got %d", len(times))
	}
	if !common.AllFinite(times) {
		return common.InvalidInput(op, "time column contains NaN or Inf")
	}
	if !common.IsStrictlyIncreasing(times) {
		return common.InvalidInput(op, "time column is not strictly increasing")
	}
	return nil
}

// resolveSampleRate returns configured when positive, otherwise round(1/median(dt))
func resolveSampleRate(op string, times []float64, configured float64) (float64, error) {
	if configured < 0 || math.IsNaN(configured) || math.IsInf(configured, 0) {
		return 0, common.InvalidInput(op, "sample rate must not be negative, got %v", configured)
	}
	if configured > 0 {
		return configured, nil
	}

	dt := make([]float64, len(times)-1)
	for i := range dt {
		dt[i] = times[i+1] - times[i]
	}
	rate := math.Round(1 / common.Median(dt))
	if !(rate > 0) || math.IsInf(rate, 0) {
		return 0, common.InvalidInput(op, "cannot derive sample rate from time step %v", common.Median(dt))
	}
	return rate, nil
}

func defaultSweepName(i int) string {
	return fmt.Sprintf("sweep_%d", i)
}
