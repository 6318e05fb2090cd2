// Package analysis exposes the pore-blockade analysis pipeline: event detection over
// chunked current traces, dwell-time fitting, and noise spectrum fitting.
package analysis

import (
	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pore/algorithms/stats"
	"github.com/RyanBlaney/sonido-pore/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pore/algorithms/windowing"
)

// DwellTimeResult is a dwell-time fit together with the data needed to plot it
type DwellTimeResult struct {
	Fit       *stats.DwellFit  `json:"fit"`
	Histogram *stats.Histogram `json:"histogram"`
	Curve     []float64        `json:"curve"` // fitted model at the histogram bin centers
}

// LorentzianResult is a Lorentzian fit sampled at the input frequencies
type LorentzianResult struct {
	Params spectral.LorentzianParams `json:"params"`
	Curve  []float64                 `json:"curve"`
}

// DetectEvents splits the trace into intervals of intervalLength seconds and runs the
// detector on each. Events are returned in time order. Intervals shorter than two
// samples are skipped.
func DetectEvents(samples, times []float64, sampleRate float64, params temporal.DetectorParams, intervalLength float64) ([]temporal.Event, error) {
	detector, err := temporal.NewEventDetectorWithParams(params)
	if err != nil {
		return nil, err
	}
	chunker, err := temporal.NewChunker(sampleRate, intervalLength)
	if err != nil {
		return nil, err
	}
	return detectChunked(chunker, detector, samples, times)
}

func detectChunked(chunker *temporal.Chunker, detector *temporal.EventDetector, samples, times []float64) ([]temporal.Event, error) {
	chunks, err := chunker.Chunks(samples, times)
	if err != nil {
		return nil, err
	}

	events := []temporal.Event{}
	for chunk := range chunks {
		if chunk.Len() < 2 {
			continue
		}
		found, err := detector.Detect(chunk.Amplitudes, chunk.Times)
		if err != nil {
			return nil, err
		}
		events = append(events, found...)
	}
	return events, nil
}

// BuildEventTable collects events into a start_time, end_time, duration table
func BuildEventTable(events []temporal.Event) *temporal.EventTable {
	return temporal.NewEventTable(events)
}

// FitDwellTime histograms the duration column of table and fits the model of kind
func FitDwellTime(table stats.ColumnSource, kind stats.FitKind, bins int) (*DwellTimeResult, error) {
	if _, err := stats.ParseFitKind(string(kind)); err != nil {
		return nil, err
	}

	fitter, err := stats.NewDwellTimeFitter(table, bins)
	if err != nil {
		return nil, err
	}
	fit, err := fitter.Fit(kind)
	if err != nil {
		return nil, err
	}
	hist, err := fitter.PrepareHistogram()
	if err != nil {
		return nil, err
	}
	curve, err := fitter.Curve(kind, hist.Centers)
	if err != nil {
		return nil, err
	}

	return &DwellTimeResult{
		Fit:       fit,
		Histogram: hist,
		Curve:     curve,
	}, nil
}

// ComputePSD returns the one-sided power spectral density of signal sampled at fs.
// An empty window selects Hamming. The mean is removed first.
func ComputePSD(signal []float64, fs float64, window windowing.Type) (*spectral.PSDResult, error) {
	params := spectral.DefaultPSDParams()
	if window != "" {
		params.Window = window
	}

	analyzer, err := spectral.NewSpectralAnalyzerWithParams(fs, params)
	if err != nil {
		return nil, err
	}
	return analyzer.ComputePSD(signal)
}

// FitLorentzian fits S(f) = S0/(1+(f/fc)^2) to a spectrum
func FitLorentzian(frequencies, power []float64) (*LorentzianResult, error) {
	fitter, err := spectral.NewLorentzianFitter(frequencies, power)
	if err != nil {
		return nil, err
	}
	params, err := fitter.Fit()
	if err != nil {
		return nil, err
	}
	curve, err := fitter.Evaluate(frequencies)
	if err != nil {
		return nil, err
	}
	return &LorentzianResult{Params: params, Curve: curve}, nil
}

// recordable reports whether err is a per-fit failure kept in a report instead of
// aborting the run
func recordable(err error) bool {
	switch common.KindOf(err) {
	case common.KindFitConvergence, common.KindInsufficientData:
		return true
	default:
		return false
	}
}
