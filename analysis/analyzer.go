package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/filters"
	"github.com/RyanBlaney/sonido-pore/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pore/algorithms/stats"
	"github.com/RyanBlaney/sonido-pore/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pore/analysis/config"
	"github.com/RyanBlaney/sonido-pore/logging"
	"github.com/RyanBlaney/sonido-pore/recording"
)

// Report is the outcome of one analysis run
type Report struct {
	RunID      string                 `json:"run_id"`
	Source     string                 `json:"source"`
	CreatedAt  time.Time              `json:"created_at"`
	Elapsed    time.Duration          `json:"elapsed"`
	SampleRate float64                `json:"sample_rate"`
	Samples    int                    `json:"samples"` // per sweep
	Sweeps     []SweepReport          `json:"sweeps"`
	EventCount int                    `json:"event_count"`
	Events     *temporal.EventTable   `json:"-"`
	Summary    *stats.DwellSummary    `json:"dwell_summary,omitempty"`
	DwellFits  []DwellFitReport       `json:"dwell_fits"`
	Spectra    []SpectrumReport       `json:"spectra,omitempty"`
	Detection  config.DetectionConfig `json:"detection"`
}

// SweepReport summarises detection on one sweep
type SweepReport struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
	Events int    `json:"events"`
}

// DwellFitReport holds either the parameters of a dwell-time fit or why it failed
type DwellFitReport struct {
	Kind     stats.FitKind `json:"kind"`
	Params   []float64     `json:"params,omitempty"`
	Residual float64       `json:"residual,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// SpectrumReport holds the Lorentzian fit of one sweep's PSD, or why it failed
type SpectrumReport struct {
	Sweep int                 `json:"sweep"`
	Name  string              `json:"name"`
	S0    float64             `json:"s0,omitempty"` // pA^2/Hz
	Fc    float64             `json:"fc,omitempty"` // Hz
	Error string              `json:"error,omitempty"`
	PSD   *spectral.PSDResult `json:"-"`
}

// Analyzer runs the full pipeline over recordings
type Analyzer struct {
	config   *config.Config
	detector *temporal.EventDetector
	kinds    []stats.FitKind
	logger   logging.Logger
}

// NewAnalyzer creates an analyzer. A nil config uses the defaults.
func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	detector, err := temporal.NewEventDetectorWithParams(cfg.DetectorParams())
	if err != nil {
		return nil, err
	}
	kinds, err := cfg.Kinds()
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "analyzer",
	})

	return &Analyzer{
		config:   cfg,
		detector: detector,
		kinds:    kinds,
		logger:   logger,
	}, nil
}

// Analyze detects events on every sweep, fits the pooled dwell times and, when
// enabled, fits a Lorentzian to each sweep's PSD. Invalid input aborts the run;
// fits that do not converge or lack data are recorded in the report.
func (a *Analyzer) Analyze(ctx context.Context, rec *recording.Recording) (*Report, error) {
	const op = "analysis.Analyzer.Analyze"

	if rec == nil || len(rec.Sweeps) == 0 {
		return nil, common.InvalidInput(op, "recording has no sweeps")
	}

	start := time.Now()
	report := &Report{
		RunID:      uuid.NewString(),
		Source:     rec.Source,
		CreatedAt:  start.UTC(),
		SampleRate: rec.SampleRate,
		Samples:    rec.Samples(),
		Events:     temporal.NewEventTable(nil),
		Detection:  a.config.Detection,
	}

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"run_id": report.RunID,
		"source": rec.Source,
	})
	logger.Info("Starting analysis", logging.Fields{
		"sweeps":      len(rec.Sweeps),
		"samples":     report.Samples,
		"sample_rate": rec.SampleRate,
	})

	chunker, err := temporal.NewChunker(rec.SampleRate, a.config.Detection.IntervalLength)
	if err != nil {
		return nil, err
	}

	for _, sweep := range rec.Sweeps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		signal, err := a.condition(sweep.Amplitudes, rec.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep.Index, err)
		}
		events, err := detectChunked(chunker, a.detector, signal, sweep.Times)
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep.Index, err)
		}
		report.Events.Append(events...)
		report.Sweeps = append(report.Sweeps, SweepReport{
			Index:  sweep.Index,
			Name:   sweep.Name,
			Chunks: chunker.Count(sweep.Len()),
			Events: len(events),
		})

		logger.Debug("Sweep scanned", logging.Fields{
			"sweep":  sweep.Index,
			"events": len(events),
		})
	}
	report.EventCount = report.Events.Len()

	if err := a.fitDwellTimes(report, logger); err != nil {
		return nil, err
	}

	if a.config.Spectral.Enabled {
		for _, sweep := range rec.Sweeps {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			spectrum, err := a.fitSpectrum(sweep, rec.SampleRate, logger)
			if err != nil {
				return nil, fmt.Errorf("sweep %d: %w", sweep.Index, err)
			}
			report.Spectra = append(report.Spectra, spectrum)
		}
	}

	report.Elapsed = time.Since(start)

	logger.Info("Analysis complete", logging.Fields{
		"events":     report.EventCount,
		"dwell_fits": len(report.DwellFits),
		"elapsed_ms": report.Elapsed.Milliseconds(),
	})

	return report, nil
}

// condition applies the optional baseline removal and low-pass filter to a
// sweep. Spectra are always computed on the raw trace.
func (a *Analyzer) condition(amps []float64, sampleRate float64) ([]float64, error) {
	det := a.config.Detection
	signal := amps

	if det.BaselineCutoff > 0 {
		baseline, err := filters.NewBaselineRemoval(sampleRate, det.BaselineCutoff)
		if err != nil {
			return nil, err
		}
		signal = baseline.ProcessBuffer(signal)
	}
	if det.LowPassCutoff > 0 {
		lowPass, err := filters.NewLowPass(sampleRate, det.LowPassCutoff)
		if err != nil {
			return nil, err
		}
		signal = lowPass.ProcessBuffer(signal)
	}
	return signal, nil
}

func (a *Analyzer) fitDwellTimes(report *Report, logger logging.Logger) error {
	durations, err := report.Events.Column(temporal.ColumnDuration)
	if err != nil {
		return err
	}
	if len(durations) > 0 {
		summary, err := stats.Summarize(durations)
		switch {
		case err == nil:
			report.Summary = summary
		case recordable(err):
			logger.Warn("Dwell summary not available", logging.Fields{
				"events": len(durations),
				"error":  err.Error(),
			})
		default:
			return err
		}
	}

	for _, kind := range a.kinds {
		entry := DwellFitReport{Kind: kind}

		result, err := FitDwellTime(report.Events, kind, a.config.Dwell.Bins)
		switch {
		case err == nil:
			entry.Params = result.Fit.Params
			entry.Residual = result.Fit.Residual
		case recordable(err):
			entry.Error = err.Error()
			logger.Warn("Dwell-time fit not available", logging.Fields{
				"kind":  string(kind),
				"error": err.Error(),
			})
		default:
			return err
		}

		report.DwellFits = append(report.DwellFits, entry)
	}
	return nil
}

func (a *Analyzer) fitSpectrum(sweep recording.Sweep, sampleRate float64, logger logging.Logger) (SpectrumReport, error) {
	entry := SpectrumReport{Sweep: sweep.Index, Name: sweep.Name}

	analyzer, err := spectral.NewSpectralAnalyzerWithParams(sampleRate, a.config.PSDParams())
	if err != nil {
		return entry, err
	}
	psd, err := analyzer.ComputePSD(sweep.Amplitudes)
	if err != nil {
		return entry, err
	}
	entry.PSD = psd

	fit, err := FitLorentzian(psd.Frequencies, psd.Power)
	switch {
	case err == nil:
		entry.S0 = fit.Params.S0
		entry.Fc = fit.Params.Fc
	case recordable(err):
		entry.Error = err.Error()
		logger.Warn("Lorentzian fit not available", logging.Fields{
			"sweep": sweep.Index,
			"error": err.Error(),
		})
	default:
		return entry, err
	}
	return entry, nil
}
