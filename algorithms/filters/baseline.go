package filters

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// BaselineRemoval is a one-pole DC blocker that removes slow drift of the
// open-pore current while leaving millisecond-scale blockades intact.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//
// The difference equation is y[n] = x[n] - x[n-1] + R*y[n-1].
type BaselineRemoval struct {
	pole       float64 // R, 0 < R < 1
	cutoff     float64 // approximate -3dB frequency in Hz
	sampleRate float64

	x1, y1 float64
	primed bool
}

// NewBaselineRemoval builds a DC blocker whose pole is placed with
// R = 1 - 2*pi*fc/fs, valid while fc is far below the Nyquist frequency.
func NewBaselineRemoval(sampleRate, cutoff float64) (*BaselineRemoval, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, common.InvalidInput("filters.NewBaselineRemoval", "sample rate must be positive and finite, got %g", sampleRate)
	}
	pole := 1 - 2*math.Pi*cutoff/sampleRate
	if !(cutoff > 0) || !(pole > 0) {
		return nil, common.InvalidInput("filters.NewBaselineRemoval",
			"cutoff must be in (0, %g) Hz, got %g", sampleRate/(2*math.Pi), cutoff)
	}
	return &BaselineRemoval{pole: pole, cutoff: cutoff, sampleRate: sampleRate}, nil
}

// Pole returns R.
func (b *BaselineRemoval) Pole() float64 {
	return b.pole
}

// Cutoff returns the configured corner frequency in Hz.
func (b *BaselineRemoval) Cutoff() float64 {
	return b.cutoff
}

// Process filters one sample. The first sample after construction or Reset
// is treated as the settled baseline and maps to zero.
func (b *BaselineRemoval) Process(input float64) float64 {
	if !b.primed {
		b.x1 = input
		b.y1 = 0
		b.primed = true
	}

	out := input - b.x1 + b.pole*b.y1
	b.x1 = input
	b.y1 = out
	return out
}

// ProcessBuffer filters a whole trace into a new slice.
func (b *BaselineRemoval) ProcessBuffer(input []float64) []float64 {
	out := make([]float64, len(input))
	for i, x := range input {
		out[i] = b.Process(x)
	}
	return out
}

// Reset clears the filter state.
func (b *BaselineRemoval) Reset() {
	b.x1, b.y1 = 0, 0
	b.primed = false
}

// Response returns the linear magnitude response at frequency f in Hz.
//
// H(e^jw) = (1 - e^-jw) / (1 - R*e^-jw)
func (b *BaselineRemoval) Response(f float64) float64 {
	w := 2 * math.Pi * f / b.sampleRate
	z1 := complex(math.Cos(w), -math.Sin(w))
	return cmplx.Abs((1 - z1) / (1 - complex(b.pole, 0)*z1))
}
