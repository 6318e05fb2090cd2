// Command porescan detects translocation events in nanopore current recordings,
// fits their dwell-time distribution and the noise spectrum, and prints a JSON report.
//
// Usage:
//
//	porescan [flags] -input trace.csv
//
// Examples:
//
//	porescan -input trace.csv.gz -events-out events.csv
//	porescan -config porescan.yaml -input sweeps.xlsx -psd-out psd.csv
//	porescan -input trace.txt -sample-rate 250000 -log-level debug
//	porescan -input trace.csv -low-pass 10000 -baseline 1
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-pore/analysis"
	"github.com/RyanBlaney/sonido-pore/analysis/config"
	"github.com/RyanBlaney/sonido-pore/logging"
	"github.com/RyanBlaney/sonido-pore/recording"
)

type options struct {
	configPath string
	input      string
	eventsOut  string
	psdOut     string
	sampleRate float64
	lowPass    float64
	baseline   float64
	logLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file (defaults are used when empty)")
	flag.StringVar(&opts.input, "input", "", "recording to analyze (.csv, .tsv, .txt, .xlsx, optionally .gz/.bz2/.xz)")
	flag.StringVar(&opts.eventsOut, "events-out", "", "write the event table as CSV to this file")
	flag.StringVar(&opts.psdOut, "psd-out", "", "write the power spectral densities as CSV to this file")
	flag.Float64Var(&opts.sampleRate, "sample-rate", 0, "sample rate in Hz, overrides config (0 derives it from the time column)")
	flag.Float64Var(&opts.lowPass, "low-pass", 0, "low-pass cutoff in Hz applied before detection (overrides config)")
	flag.Float64Var(&opts.baseline, "baseline", 0, "baseline drift removal cutoff in Hz (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: porescan [flags] -input FILE\n\n")
		fmt.Fprintf(os.Stderr, "Detects blockade events and fits dwell-time and noise models.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if opts.input == "" && flag.NArg() == 1 {
		opts.input = flag.Arg(0)
	}
	if opts.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		logging.Error(err, "porescan failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.sampleRate != 0 {
		cfg.Loader.SampleRate = opts.sampleRate
	}
	if opts.lowPass != 0 {
		cfg.Detection.LowPassCutoff = opts.lowPass
	}
	if opts.baseline != 0 {
		cfg.Detection.BaselineCutoff = opts.baseline
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.eventsOut != "" {
		cfg.Output.EventsPath = opts.eventsOut
	}
	if opts.psdOut != "" {
		cfg.Output.PSDPath = opts.psdOut
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logger(os.Stderr))
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)

	loader, err := recording.NewLoader(cfg.RecordingLoader())
	if err != nil {
		return err
	}
	rec, err := loader.Load(opts.input)
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	report, err := analyzer.Analyze(ctx, rec)
	if err != nil {
		return err
	}

	if path := cfg.Output.EventsPath; path != "" {
		if err := writeFile(path, report.Events.WriteCSV); err != nil {
			return err
		}
	}
	if path := cfg.Output.PSDPath; path != "" && len(report.Spectra) > 0 {
		if err := writeFile(path, func(w io.Writer) error {
			return analysis.WriteSpectraCSV(w, report.Spectra)
		}); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
