package fitting

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// Model evaluates a parametric curve at x
type Model func(x float64, params []float64) float64

// Settings configures a single least-squares call. A Settings value is copied into
// each call, so fits never share optimizer state.
type Settings struct {
	MaxIterations      int     `json:"max_iterations"`
	AbsoluteTolerance  float64 `json:"absolute_tolerance"`
	RelativeTolerance  float64 `json:"relative_tolerance"`
	ConvergenceWindow  int     `json:"convergence_window"` // iterations without improvement before stopping
	InitialSimplexSize float64 `json:"initial_simplex_size"`
}

// DefaultSettings returns settings suited to the small (2 to 4 parameter) models used here
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:      20000,
		AbsoluteTolerance:  1e-12,
		RelativeTolerance:  1e-10,
		ConvergenceWindow:  200,
		InitialSimplexSize: 0.05,
	}
}

// Result is the outcome of a converged fit
type Result struct {
	Params          []float64 `json:"params"`
	SSR             float64   `json:"ssr"` // sum of squared residuals at Params
	Iterations      int       `json:"iterations"`
	FuncEvaluations int       `json:"func_evaluations"`
	Status          string    `json:"status"`
}

// SumSquaredResiduals evaluates model at every x and returns the residual sum of squares
func SumSquaredResiduals(model Model, x, y, params []float64) float64 {
	ssr := 0.0
	for i := range x {
		r := y[i] - model(x[i], params)
		ssr += r * r
	}
	return ssr
}

// LeastSquares minimises the sum of squared residuals of model against (x, y)
// starting from initial, using the Nelder-Mead simplex method.
func LeastSquares(model Model, x, y, initial []float64, settings Settings) (*Result, error) {
	const op = "fitting.LeastSquares"

	if model == nil {
		return nil, common.InvalidInput(op, "nil model")
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, common.InvalidInput(op, "x and y must have the same positive length, got %d and %d", len(x), len(y))
	}
	if len(initial) == 0 {
		return nil, common.InvalidInput(op, "no initial parameters")
	}
	if len(x) < len(initial) {
		return nil, common.InsufficientData(op, "%d points for %d parameters", len(x), len(initial))
	}
	if !common.AllFinite(x) || !common.AllFinite(y) || !common.AllFinite(initial) {
		return nil, common.InvalidInput(op, "non-finite values in data or initial guess")
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			ssr := SumSquaredResiduals(model, x, y, p)
			if math.IsNaN(ssr) {
				return math.Inf(1)
			}
			return ssr
		},
	}

	optSettings := &optimize.Settings{
		MajorIterations: settings.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   settings.AbsoluteTolerance,
			Relative:   settings.RelativeTolerance,
			Iterations: settings.ConvergenceWindow,
		},
	}
	method := &optimize.NelderMead{SimplexSize: settings.InitialSimplexSize}

	start := make([]float64, len(initial))
	copy(start, initial)

	res, err := optimize.Minimize(problem, start, optSettings, method)
	if err != nil {
		return nil, common.FitConvergence(op, "%v", err)
	}
	if !converged(res.Status) {
		return nil, common.FitConvergence(op, "optimizer stopped with status %s after %d iterations",
			res.Status, res.Stats.MajorIterations)
	}
	if !common.AllFinite(res.X) || math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return nil, common.FitConvergence(op, "non-finite parameters %v", res.X)
	}

	params := make([]float64, len(res.X))
	copy(params, res.X)

	return &Result{
		Params:          params,
		SSR:             res.F,
		Iterations:      res.Stats.MajorIterations,
		FuncEvaluations: res.Stats.FuncEvaluations,
		Status:          res.Status.String(),
	}, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.MethodConverge,
		optimize.FunctionThreshold,
		optimize.GradientThreshold,
		optimize.StepConvergence:
		return true
	}
	return false
}
