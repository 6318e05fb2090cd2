package spectral

import (
	"math"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/fitting"
	"github.com/RyanBlaney/sonido-pore/logging"
)

// epsilon (float64 machine epsilon) replaces zero or negative frequencies and
// powers before fitting
const epsilon = 0x1p-52

// LorentzianParams are the fitted single-pole noise parameters
type LorentzianParams struct {
	S0 float64 `json:"s0"` // zero-frequency power spectral density
	Fc float64 `json:"fc"` // corner frequency in Hz
}

// Lorentzian evaluates S(f) = S0 / (1 + (f/fc)^2)
func Lorentzian(f, s0, fc float64) float64 {
	r := f / fc
	return s0 / (1 + r*r)
}

// LorentzianFitter fits a Lorentzian noise model to a power spectrum
type LorentzianFitter struct {
	frequencies []float64
	power       []float64
	settings    fitting.Settings

	params *LorentzianParams
	logger logging.Logger
}

// NewLorentzianFitter copies the spectrum, replacing non-positive values with machine epsilon
func NewLorentzianFitter(frequencies, power []float64) (*LorentzianFitter, error) {
	return NewLorentzianFitterWithSettings(frequencies, power, fitting.DefaultSettings())
}

// NewLorentzianFitterWithSettings is NewLorentzianFitter with explicit optimizer settings
func NewLorentzianFitterWithSettings(frequencies, power []float64, settings fitting.Settings) (*LorentzianFitter, error) {
	const op = "spectral.NewLorentzianFitter"

	if len(frequencies) == 0 || len(power) == 0 {
		return nil, common.InvalidInput(op, "empty spectrum")
	}
	if len(frequencies) != len(power) {
		return nil, common.InvalidInput(op, "frequencies (%d) and power (%d) lengths differ", len(frequencies), len(power))
	}
	if !common.AllFinite(frequencies) || !common.AllFinite(power) {
		return nil, common.InvalidInput(op, "spectrum contains non-finite values")
	}

	return &LorentzianFitter{
		frequencies: common.ReplaceNonPositive(frequencies, epsilon),
		power:       common.ReplaceNonPositive(power, epsilon),
		settings:    settings,
		logger: logging.WithFields(logging.Fields{
			"component": "lorentzian_fitter",
		}),
	}, nil
}

// initialGuess takes S0 from the low-frequency plateau and fc from the half-power point
func (lf *LorentzianFitter) initialGuess() (s0, fc float64) {
	n := len(lf.power)
	head := max(1, n/10)
	s0 = common.Max(lf.power[:head])

	fc = lf.frequencies[n-1]
	for i, p := range lf.power {
		if p <= s0/2 {
			fc = lf.frequencies[i]
			break
		}
	}
	if fc <= epsilon {
		fc = common.Mean(lf.frequencies)
	}
	return s0, fc
}

// Fit runs the nonlinear least-squares fit and stores the parameters.
// The power is normalised by the S0 guess and the parameters are searched in log space
// so both stay positive.
func (lf *LorentzianFitter) Fit() (LorentzianParams, error) {
	const op = "spectral.LorentzianFitter.Fit"

	if len(lf.power) < 2 {
		return LorentzianParams{}, common.InsufficientData(op, "need at least 2 spectrum points, got %d", len(lf.power))
	}

	s0Guess, fcGuess := lf.initialGuess()

	y := make([]float64, len(lf.power))
	for i, p := range lf.power {
		y[i] = p / s0Guess
	}

	model := func(f float64, q []float64) float64 {
		return Lorentzian(f, math.Exp(q[0]), math.Exp(q[1]))
	}

	res, err := fitting.LeastSquares(model, lf.frequencies, y, []float64{0, math.Log(fcGuess)}, lf.settings)
	if err != nil {
		lf.logger.Warn("Lorentzian fit failed", logging.Fields{
			"s0_guess": s0Guess,
			"fc_guess": fcGuess,
			"error":    err.Error(),
		})
		return LorentzianParams{}, err
	}

	params := LorentzianParams{
		S0: math.Exp(res.Params[0]) * s0Guess,
		Fc: math.Exp(res.Params[1]),
	}
	if !common.AllFinite([]float64{params.S0, params.Fc}) || params.S0 <= 0 || params.Fc <= 0 {
		return LorentzianParams{}, common.FitConvergence(op, "degenerate parameters S0=%v fc=%v", params.S0, params.Fc)
	}

	lf.params = &params

	lf.logger.Debug("Lorentzian fit converged", logging.Fields{
		"s0":         params.S0,
		"fc":         params.Fc,
		"iterations": res.Iterations,
	})

	return params, nil
}

// Parameters returns the stored fit
func (lf *LorentzianFitter) Parameters() (LorentzianParams, error) {
	if lf.params == nil {
		return LorentzianParams{}, common.InvalidInput("spectral.LorentzianFitter.Parameters", "fit has not been run")
	}
	return *lf.params, nil
}

// Evaluate samples the fitted curve at frequencies
func (lf *LorentzianFitter) Evaluate(frequencies []float64) ([]float64, error) {
	params, err := lf.Parameters()
	if err != nil {
		return nil, err
	}

	curve := make([]float64, len(frequencies))
	for i, f := range frequencies {
		curve[i] = Lorentzian(f, params.S0, params.Fc)
	}
	return curve, nil
}

// Residual returns the sum of squared residuals of the last fit in the input units
func (lf *LorentzianFitter) Residual() (float64, error) {
	params, err := lf.Parameters()
	if err != nil {
		return 0, err
	}
	return fitting.SumSquaredResiduals(func(f float64, p []float64) float64 {
		return Lorentzian(f, p[0], p[1])
	}, lf.frequencies, lf.power, []float64{params.S0, params.Fc}), nil
}
