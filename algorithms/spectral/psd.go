package spectral

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/windowing"
	"github.com/RyanBlaney/sonido-pore/logging"
)

// PSDResult holds a one-sided power spectral density
type PSDResult struct {
	Frequencies []float64 `json:"frequencies"` // Hz, ascending from 0 to fs/2
	Power       []float64 `json:"power"`       // signal units^2 / Hz
	SampleRate  float64   `json:"sample_rate"`
	Window      string    `json:"window"`
	Resolution  float64   `json:"resolution"` // bin width in Hz
}

// PSDParams configures the estimator
type PSDParams struct {
	Window  windowing.Type `json:"window"`
	Detrend bool           `json:"detrend"` // subtract the mean before windowing
}

// DefaultPSDParams returns a Hamming window with constant detrending
func DefaultPSDParams() PSDParams {
	return PSDParams{
		Window:  windowing.Hamming,
		Detrend: true,
	}
}

// SpectralAnalyzer estimates the power spectral density of whole recordings with a single
// windowed periodogram
type SpectralAnalyzer struct {
	fs     float64
	params PSDParams
	fft    *FFT
	logger logging.Logger
}

// NewSpectralAnalyzer creates an analyzer for signals sampled at fs Hz
func NewSpectralAnalyzer(fs float64) (*SpectralAnalyzer, error) {
	return NewSpectralAnalyzerWithParams(fs, DefaultPSDParams())
}

// NewSpectralAnalyzerWithParams creates an analyzer with a custom window and detrend setting
func NewSpectralAnalyzerWithParams(fs float64, params PSDParams) (*SpectralAnalyzer, error) {
	const op = "spectral.NewSpectralAnalyzer"

	if !(fs > 0) || math.IsInf(fs, 0) {
		return nil, common.InvalidInput(op, "sampling frequency must be positive, got %v", fs)
	}
	if params.Window == "" {
		params.Window = windowing.Hamming
	}
	if _, err := windowing.ParseType(string(params.Window)); err != nil {
		return nil, common.InvalidInput(op, "%v", err)
	}

	return &SpectralAnalyzer{
		fs:     fs,
		params: params,
		fft:    NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "spectral_analyzer",
		}),
	}, nil
}

// SampleRate returns the configured sampling frequency
func (sa *SpectralAnalyzer) SampleRate() float64 {
	return sa.fs
}

// ComputePSD returns the one-sided power spectral density of signal.
//
// The signal is (optionally) mean-subtracted, multiplied by a periodic window w, and
// transformed. Power is |X_k|^2 / (fs * sum(w^2)); every bin except DC and (for even
// lengths) Nyquist is doubled to fold in the negative frequencies.
func (sa *SpectralAnalyzer) ComputePSD(signal []float64) (*PSDResult, error) {
	const op = "spectral.ComputePSD"

	n := len(signal)
	if n < 2 {
		return nil, common.InsufficientData(op, "need at least 2 samples, got %d", n)
	}
	if !common.AllFinite(signal) {
		return nil, common.InvalidInput(op, "signal contains non-finite samples")
	}

	window, err := windowing.New(sa.params.Window, n, false)
	if err != nil {
		return nil, common.InvalidInput(op, "%v", err)
	}

	work := make([]float64, n)
	copy(work, signal)
	if sa.params.Detrend {
		mean := common.Mean(work)
		for i := range work {
			work[i] -= mean
		}
	}

	windowed, err := window.Apply(work)
	if err != nil {
		return nil, common.InvalidInput(op, "%v", err)
	}

	spectrum := sa.fft.Compute(windowed)
	bins := OneSidedBins(n)
	scale := 1.0 / (sa.fs * window.Energy())

	power := make([]float64, bins)
	for k := range bins {
		mag := cmplx.Abs(spectrum[k])
		power[k] = mag * mag * scale
	}

	last := bins
	if n%2 == 0 {
		// Nyquist bin has no negative-frequency twin
		last = bins - 1
	}
	for k := 1; k < last; k++ {
		power[k] *= 2
	}

	sa.logger.Debug("Computed power spectral density", logging.Fields{
		"samples": n,
		"bins":    bins,
		"window":  string(sa.params.Window),
	})

	return &PSDResult{
		Frequencies: BinFrequencies(n, sa.fs),
		Power:       power,
		SampleRate:  sa.fs,
		Window:      string(sa.params.Window),
		Resolution:  sa.fs / float64(n),
	}, nil
}
