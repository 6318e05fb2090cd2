package filters

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// LowPass is a second-order Butterworth low-pass filter in biquad form,
// used to suppress wideband amplifier noise before event detection.
//
// Coefficients follow Robert Bristow-Johnson's "Cookbook formulae for audio
// EQ biquad filter coefficients".
// Reference: https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html
type LowPass struct {
	sampleRate float64
	cutoff     float64 // -3dB frequency in Hz

	// normalised so that a0 == 1
	b0, b1, b2 float64
	a1, a2     float64

	// direct form II delay line
	w1, w2 float64
	primed bool
}

// NewLowPass builds a Butterworth low-pass for the given sample rate and cutoff.
// The cutoff must lie strictly between 0 and the Nyquist frequency.
func NewLowPass(sampleRate, cutoff float64) (*LowPass, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, common.InvalidInput("filters.NewLowPass", "sample rate must be positive and finite, got %g", sampleRate)
	}
	if !(cutoff > 0) || cutoff >= sampleRate/2 {
		return nil, common.InvalidInput("filters.NewLowPass",
			"cutoff must be in (0, %g) Hz, got %g", sampleRate/2, cutoff)
	}

	lp := &LowPass{sampleRate: sampleRate, cutoff: cutoff}
	lp.computeCoefficients()
	return lp, nil
}

func (lp *LowPass) computeCoefficients() {
	w0 := 2 * math.Pi * lp.cutoff / lp.sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / math.Sqrt2 // Q = 1/sqrt(2)

	a0 := 1 + alpha
	lp.b0 = (1 - cosW0) / 2 / a0
	lp.b1 = (1 - cosW0) / a0
	lp.b2 = lp.b0
	lp.a1 = -2 * cosW0 / a0
	lp.a2 = (1 - alpha) / a0
}

// Cutoff returns the -3dB frequency in Hz.
func (lp *LowPass) Cutoff() float64 {
	return lp.cutoff
}

// Process filters one sample. The first sample after construction or Reset
// primes the delay line at steady state, so a trace that starts on its
// baseline produces no start-up transient.
func (lp *LowPass) Process(input float64) float64 {
	if !lp.primed {
		// DC gain is 1, so steady state for a constant input x is w = x/(1+a1+a2)
		lp.w1 = input / (1 + lp.a1 + lp.a2)
		lp.w2 = lp.w1
		lp.primed = true
	}

	w := input - lp.a1*lp.w1 - lp.a2*lp.w2
	out := lp.b0*w + lp.b1*lp.w1 + lp.b2*lp.w2

	lp.w2 = lp.w1
	lp.w1 = w
	return out
}

// ProcessBuffer filters a whole trace into a new slice.
func (lp *LowPass) ProcessBuffer(input []float64) []float64 {
	out := make([]float64, len(input))
	for i, x := range input {
		out[i] = lp.Process(x)
	}
	return out
}

// Reset clears the delay line. Call it between discontinuous sweeps.
func (lp *LowPass) Reset() {
	lp.w1, lp.w2 = 0, 0
	lp.primed = false
}

// Response returns the linear magnitude response at frequency f in Hz.
//
// H(e^jw) = (b0 + b1*e^-jw + b2*e^-j2w) / (1 + a1*e^-jw + a2*e^-j2w)
func (lp *LowPass) Response(f float64) float64 {
	w := 2 * math.Pi * f / lp.sampleRate
	z1 := complex(math.Cos(w), -math.Sin(w))
	z2 := z1 * z1

	num := complex(lp.b0, 0) + complex(lp.b1, 0)*z1 + complex(lp.b2, 0)*z2
	den := 1 + complex(lp.a1, 0)*z1 + complex(lp.a2, 0)*z2
	return cmplx.Abs(num / den)
}
