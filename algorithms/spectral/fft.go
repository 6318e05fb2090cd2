package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp transform used by the spectral estimators
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of a real signal.
// go-dsp handles non-power-of-2 lengths, so recordings are never padded.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// OneSidedBins is the number of non-negative frequency bins of an n-point transform
func OneSidedBins(n int) int {
	if n <= 0 {
		return 0
	}
	return n/2 + 1
}

// BinFrequencies returns the centre frequency of each one-sided bin for an n-point
// transform sampled at fs, ascending from 0 to fs/2 (or just below it for odd n)
func BinFrequencies(n int, fs float64) []float64 {
	bins := OneSidedBins(n)
	freqs := make([]float64, bins)
	for k := range bins {
		freqs[k] = float64(k) * fs / float64(n)
	}
	return freqs
}
