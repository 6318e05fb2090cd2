package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pore/algorithms/stats"
	"github.com/RyanBlaney/sonido-pore/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pore/algorithms/windowing"
	"github.com/RyanBlaney/sonido-pore/logging"
	"github.com/RyanBlaney/sonido-pore/recording"
)

// Config is the full analysis configuration
type Config struct {
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	Dwell     DwellConfig     `json:"dwell" yaml:"dwell"`
	Spectral  SpectralConfig  `json:"spectral" yaml:"spectral"`
	Loader    LoaderConfig    `json:"loader" yaml:"loader"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// DetectionConfig configures chunking and the dual-threshold event detector.
// IntervalLength and MinDuration are in seconds. LowPassCutoff and
// BaselineCutoff are in Hz and condition the trace before detection; zero
// disables them.
type DetectionConfig struct {
	StdMultiplier       float64 `json:"std_multiplier" yaml:"std_multiplier" default:"0.5" validate:"gt=0"`
	ThresholdMultiplier float64 `json:"threshold_multiplier" yaml:"threshold_multiplier" default:"2.5" validate:"gt=0,gtfield=StdMultiplier"`
	IntervalLength      float64 `json:"interval_length" yaml:"interval_length" default:"5" validate:"gt=0"`
	MinDuration         float64 `json:"min_duration" yaml:"min_duration" default:"0.0001" validate:"gte=0"`
	LowPassCutoff       float64 `json:"low_pass_cutoff" yaml:"low_pass_cutoff" validate:"gte=0"`
	BaselineCutoff      float64 `json:"baseline_cutoff" yaml:"baseline_cutoff" validate:"gte=0"`
}

// DwellConfig configures the dwell-time histogram and fits
type DwellConfig struct {
	Bins     int      `json:"bins" yaml:"bins" default:"250" validate:"gt=0"`
	FitKinds []string `json:"fit_kinds" yaml:"fit_kinds" default:"[\"single\",\"double\"]" validate:"dive,oneof=single double"`
}

// SpectralConfig configures the PSD and Lorentzian fit
type SpectralConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" default:"true"`
	Window  string `json:"window" yaml:"window" default:"hamming" validate:"oneof=hamming hann blackman bartlett rectangular"`
	Detrend bool   `json:"detrend" yaml:"detrend" default:"true"`
}

// LoaderConfig configures how recordings are read
type LoaderConfig struct {
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate" validate:"gte=0"` // 0 derives it from the time column
	TimeScale  float64 `json:"time_scale" yaml:"time_scale" default:"1" validate:"gt=0"`
	Invert     bool    `json:"invert" yaml:"invert" default:"true"`
	Delimiter  string  `json:"delimiter" yaml:"delimiter" validate:"max=1"`
	Sheet      string  `json:"sheet" yaml:"sheet"`
}

// OutputConfig names optional export files
type OutputConfig struct {
	EventsPath string `json:"events_path" yaml:"events_path"`
	PSDPath    string `json:"psd_path" yaml:"psd_path"`
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" default:"info" validate:"oneof=debug info warn warning error fatal"`
	Format string `json:"format" yaml:"format" default:"console" validate:"oneof=console json"`
}

var validate = validator.New()

// Default returns the configuration with every default applied
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config: invalid default tags: %v", err))
	}
	return c
}

// Load reads and validates a YAML configuration file. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, errorMessage(fe))
	}
	return common.InvalidInput("config.Validate", "%s", strings.Join(msgs, "; "))
}

func errorMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// DetectorParams returns the event detector parameters
func (c *Config) DetectorParams() temporal.DetectorParams {
	return temporal.DetectorParams{
		StdMultiplier:       c.Detection.StdMultiplier,
		ThresholdMultiplier: c.Detection.ThresholdMultiplier,
		MinDuration:         c.Detection.MinDuration,
	}
}

// Kinds returns the configured dwell-time fit kinds
func (c *Config) Kinds() ([]stats.FitKind, error) {
	kinds := make([]stats.FitKind, 0, len(c.Dwell.FitKinds))
	for _, name := range c.Dwell.FitKinds {
		kind, err := stats.ParseFitKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// PSDParams returns the spectral estimator parameters
func (c *Config) PSDParams() spectral.PSDParams {
	return spectral.PSDParams{
		Window:  windowing.Type(c.Spectral.Window),
		Detrend: c.Spectral.Detrend,
	}
}

// RecordingLoader returns the recording loader configuration
func (c *Config) RecordingLoader() *recording.LoaderConfig {
	return &recording.LoaderConfig{
		SampleRate: c.Loader.SampleRate,
		TimeScale:  c.Loader.TimeScale,
		Invert:     c.Loader.Invert,
		Delimiter:  c.Loader.Delimiter,
		Sheet:      c.Loader.Sheet,
	}
}

// Logger returns the logger configuration writing to out
func (c *Config) Logger(out io.Writer) logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: out,
	}
}
