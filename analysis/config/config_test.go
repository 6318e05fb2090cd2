package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/stats"
	"github.com/RyanBlaney/sonido-pore/algorithms/windowing"
)

func TestDefault(t *testing.T) {
	c := Default()

	if c.Detection.StdMultiplier != 0.5 || c.Detection.ThresholdMultiplier != 2.5 {
		t.Errorf("multipliers = %v/%v, want 0.5/2.5", c.Detection.StdMultiplier, c.Detection.ThresholdMultiplier)
	}
	if c.Detection.IntervalLength != 5 || c.Detection.MinDuration != 0.0001 {
		t.Errorf("interval %v min duration %v", c.Detection.IntervalLength, c.Detection.MinDuration)
	}
	if c.Dwell.Bins != 250 || !slices.Equal(c.Dwell.FitKinds, []string{"single", "double"}) {
		t.Errorf("dwell = %+v", c.Dwell)
	}
	if !c.Spectral.Enabled || c.Spectral.Window != "hamming" || !c.Spectral.Detrend {
		t.Errorf("spectral = %+v", c.Spectral)
	}
	if !c.Loader.Invert || c.Loader.TimeScale != 1 || c.Loader.SampleRate != 0 {
		t.Errorf("loader = %+v", c.Loader)
	}
	if c.Logging.Level != "info" || c.Logging.Format != "console" {
		t.Errorf("logging = %+v", c.Logging)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
detection:
  threshold_multiplier: 4
  interval_length: 2.5
dwell:
  fit_kinds: [single]
spectral:
  window: blackman
  detrend: false
loader:
  invert: false
  sample_rate: 250000
logging:
  format: json
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.Detection.ThresholdMultiplier != 4 || c.Detection.StdMultiplier != 0.5 || c.Detection.IntervalLength != 2.5 {
		t.Errorf("detection = %+v", c.Detection)
	}
	if c.Spectral.Detrend || c.Loader.Invert {
		t.Error("explicit false was replaced by a default")
	}
	if c.Loader.SampleRate != 250000 || c.Logging.Format != "json" || c.Logging.Level != "info" {
		t.Errorf("loader %+v logging %+v", c.Loader, c.Logging)
	}

	kinds, err := c.Kinds()
	if err != nil || !slices.Equal(kinds, []stats.FitKind{stats.FitSingle}) {
		t.Errorf("Kinds = %v, %v", kinds, err)
	}
	if p := c.PSDParams(); p.Window != windowing.Blackman || p.Detrend {
		t.Errorf("PSDParams = %+v", p)
	}
	if p := c.DetectorParams(); p.ThresholdMultiplier != 4 || p.MinDuration != 0.0001 {
		t.Errorf("DetectorParams = %+v", p)
	}
	if lc := c.RecordingLoader(); lc.SampleRate != 250000 || lc.Invert || lc.TimeScale != 1 {
		t.Errorf("RecordingLoader = %+v", lc)
	}
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Dwell.Bins != stats.DefaultBins {
		t.Fatalf("bins = %d", c.Dwell.Bins)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		message string
	}{
		{"threshold not above std", "detection:\n  threshold_multiplier: 0.4\n", "Detection.ThresholdMultiplier"},
		{"negative std", "detection:\n  std_multiplier: -1\n", "Detection.StdMultiplier"},
		{"negative low-pass cutoff", "detection:\n  low_pass_cutoff: -5\n", "Detection.LowPassCutoff"},
		{"zero bins", "dwell:\n  bins: 0\n", "Dwell.Bins"},
		{"triple fit", "dwell:\n  fit_kinds: [single, triple]\n", "Dwell.FitKinds[1]"},
		{"window", "spectral:\n  window: kaiser\n", "Spectral.Window"},
		{"log format", "logging:\n  format: xml\n", "Logging.Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("error %q does not mention %s", err, tt.message)
			}
		})
	}

	if _, err := Parse([]byte("detection:\n  std_multiplyer: 1\n")); err == nil {
		t.Error("unknown key accepted")
	}
	if _, err := Parse([]byte("detection: [")); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "porescan.yaml")
	if err := os.WriteFile(path, []byte("dwell:\n  bins: 100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Dwell.Bins != 100 {
		t.Errorf("bins = %d, want 100", c.Dwell.Bins)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}
}
