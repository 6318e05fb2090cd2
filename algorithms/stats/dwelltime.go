package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/fitting"
	"github.com/RyanBlaney/sonido-pore/logging"
)

// DefaultBins is the histogram bin count for dwell-time fits
const DefaultBins = 250

// DurationColumn is the column read from the event dataset
const DurationColumn = "duration"

// FitKind selects the exponential model fitted to the dwell-time histogram
type FitKind string

const (
	FitSingle FitKind = "single" // a*exp(-t/tau)
	FitDouble FitKind = "double" // a1*exp(-t/tau1) + a2*exp(-t/tau2)
)

// FitKinds returns the supported kinds
func FitKinds() []FitKind {
	return []FitKind{FitSingle, FitDouble}
}

// ParseFitKind validates a kind name
func ParseFitKind(name string) (FitKind, error) {
	switch kind := FitKind(name); kind {
	case FitSingle, FitDouble:
		return kind, nil
	default:
		return "", common.InvalidInput("stats.ParseFitKind", "unsupported fit kind %q", name)
	}
}

// ParamCount returns the number of model parameters for the kind
func (k FitKind) ParamCount() int {
	switch k {
	case FitSingle:
		return 2
	case FitDouble:
		return 4
	default:
		return 0
	}
}

// ColumnSource provides named numeric columns, such as an event table
type ColumnSource interface {
	Column(name string) ([]float64, error)
}

// DwellFit is a converged dwell-time fit. Params are (a, tau) for single and
// (a1, tau1, a2, tau2) with tau1 <= tau2 for double.
type DwellFit struct {
	Kind       FitKind   `json:"kind"`
	Params     []float64 `json:"params"`
	Residual   float64   `json:"residual"`
	Iterations int       `json:"iterations"`
}

// DwellTimeFitter fits exponential decays to the histogram of event durations
type DwellTimeFitter struct {
	durations []float64
	bins      int
	settings  fitting.Settings
	fits      map[FitKind]*DwellFit
	logger    logging.Logger
}

// NewDwellTimeFitter reads the duration column from src
func NewDwellTimeFitter(src ColumnSource, bins int) (*DwellTimeFitter, error) {
	return NewDwellTimeFitterWithSettings(src, bins, fitting.DefaultSettings())
}

// NewDwellTimeFitterWithSettings creates a fitter with custom solver settings
func NewDwellTimeFitterWithSettings(src ColumnSource, bins int, settings fitting.Settings) (*DwellTimeFitter, error) {
	const op = "stats.NewDwellTimeFitter"

	if src == nil {
		return nil, common.InvalidInput(op, "nil event dataset")
	}
	if bins <= 0 {
		return nil, common.InvalidInput(op, "bin count must be positive, got %d", bins)
	}

	durations, err := src.Column(DurationColumn)
	if err != nil {
		return nil, err
	}
	if len(durations) == 0 {
		return nil, common.InsufficientData(op, "event dataset has no durations")
	}
	if !common.AllFinite(durations) {
		return nil, common.InvalidInput(op, "durations contain NaN or Inf")
	}

	logger := logging.WithFields(logging.Fields{
		"component": "dwell_time_fitter",
	})

	return &DwellTimeFitter{
		durations: slices.Clone(durations),
		bins:      bins,
		settings:  settings,
		fits:      make(map[FitKind]*DwellFit),
		logger:    logger,
	}, nil
}

// Bins returns the histogram bin count
func (dt *DwellTimeFitter) Bins() int {
	return dt.bins
}

// Durations returns a copy of the event durations
func (dt *DwellTimeFitter) Durations() []float64 {
	return slices.Clone(dt.durations)
}

// PrepareHistogram bins the durations over [0, max(duration)]
func (dt *DwellTimeFitter) PrepareHistogram() (*Histogram, error) {
	return NewHistogram(dt.durations, dt.bins)
}

// Fit fits the given model to the histogram and stores the result
func (dt *DwellTimeFitter) Fit(kind FitKind) (*DwellFit, error) {
	const op = "stats.DwellTimeFitter.Fit"

	if _, err := ParseFitKind(string(kind)); err != nil {
		return nil, err
	}

	hist, err := dt.PrepareHistogram()
	if err != nil {
		return nil, err
	}

	// Amplitudes are fitted relative to the tallest bin and all parameters in log
	// space, keeping them positive.
	scale := floats.Max(hist.Counts)
	y := make([]float64, len(hist.Counts))
	floats.ScaleTo(y, 1/scale, hist.Counts)

	meanDuration := stat.Mean(dt.durations, nil)

	var initial []float64
	switch kind {
	case FitSingle:
		initial = []float64{0, math.Log(meanDuration)}
	case FitDouble:
		initial = []float64{math.Log(0.5), math.Log(meanDuration / 2), math.Log(0.5), math.Log(2 * meanDuration)}
	}

	// a*exp(-t/tau) == exp(ln a - t*exp(-ln tau))
	model := func(t float64, q []float64) float64 {
		v := math.Exp(q[0] - t*math.Exp(-q[1]))
		if len(q) == 4 {
			v += math.Exp(q[2] - t*math.Exp(-q[3]))
		}
		return v
	}

	res, err := fitting.LeastSquares(model, hist.Centers, y, initial, dt.settings)
	if err != nil {
		dt.logger.Warn("Dwell-time fit failed", logging.Fields{
			"kind":  string(kind),
			"bins":  dt.bins,
			"error": err.Error(),
		})
		return nil, err
	}

	params := expAll(res.Params)
	params[0] *= scale
	if kind == FitDouble {
		params[2] *= scale
		if params[1] > params[3] {
			params[0], params[1], params[2], params[3] = params[2], params[3], params[0], params[1]
		}
	}
	if !common.AllFinite(params) {
		return nil, common.FitConvergence(op, "%s fit produced non-finite parameters %v", kind, params)
	}

	fit := &DwellFit{
		Kind:       kind,
		Params:     params,
		Residual:   res.SSR * scale * scale,
		Iterations: res.Iterations,
	}
	dt.fits[kind] = fit

	dt.logger.Debug("Dwell-time fit converged", logging.Fields{
		"kind":       string(kind),
		"params":     params,
		"iterations": res.Iterations,
	})

	return fit, nil
}

// Parameters returns the stored parameters of a previous fit of kind
func (dt *DwellTimeFitter) Parameters(kind FitKind) ([]float64, error) {
	const op = "stats.DwellTimeFitter.Parameters"

	if _, err := ParseFitKind(string(kind)); err != nil {
		return nil, err
	}
	fit, ok := dt.fits[kind]
	if !ok {
		return nil, common.InvalidInput(op, "%s fit has not been run", kind)
	}
	return slices.Clone(fit.Params), nil
}

// Curve evaluates the fitted model of kind at t
func (dt *DwellTimeFitter) Curve(kind FitKind, t []float64) ([]float64, error) {
	params, err := dt.Parameters(kind)
	if err != nil {
		return nil, err
	}

	curve := make([]float64, len(t))
	for i, ti := range t {
		curve[i] = evaluate(kind, ti, params)
	}
	return curve, nil
}

// FitCurve evaluates the fitted model of kind at the histogram bin centers
func (dt *DwellTimeFitter) FitCurve(kind FitKind) ([]float64, error) {
	if _, err := dt.Parameters(kind); err != nil {
		return nil, err
	}
	hist, err := dt.PrepareHistogram()
	if err != nil {
		return nil, err
	}
	return dt.Curve(kind, hist.Centers)
}

func evaluate(kind FitKind, t float64, p []float64) float64 {
	switch kind {
	case FitSingle:
		return p[0] * math.Exp(-t/p[1])
	case FitDouble:
		return p[0]*math.Exp(-t/p[1]) + p[2]*math.Exp(-t/p[3])
	default:
		return math.NaN()
	}
}

func expAll(q []float64) []float64 {
	p := make([]float64, len(q))
	for i, v := range q {
		p[i] = math.Exp(v)
	}
	return p
}
