package recording

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/logging"
)

// LoaderConfig holds loader configuration
type LoaderConfig struct {
	SampleRate float64 `json:"sample_rate"` // Hz, 0 derives it from the time column
	TimeScale  float64 `json:"time_scale"`  // multiplies the time column into seconds, 0 means 1
	Invert     bool    `json:"invert"`      // flip current sign so blockades go downward
	Delimiter  string  `json:"delimiter"`   // "", ",", "\t" or " " for any whitespace
	Sheet      string  `json:"sheet"`       // xlsx sheet, first sheet when empty
}

// DefaultLoaderConfig returns default loader configuration
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		TimeScale: 1,
		Invert:    true,
	}
}

// Loader reads tabular current recordings: column 0 is time, every other column a sweep
type Loader struct {
	config *LoaderConfig
	logger logging.Logger
}

// NewLoader creates a loader. A nil config uses the defaults.
func NewLoader(config *LoaderConfig) (*Loader, error) {
	const op = "recording.NewLoader"

	if config == nil {
		config = DefaultLoaderConfig()
	}
	if config.SampleRate < 0 || math.IsNaN(config.SampleRate) || math.IsInf(config.SampleRate, 0) {
		return nil, common.InvalidInput(op, "sample rate must not be negative, got %v", config.SampleRate)
	}
	if config.TimeScale < 0 || math.IsNaN(config.TimeScale) || math.IsInf(config.TimeScale, 0) {
		return nil, common.InvalidInput(op, "time scale must not be negative, got %v", config.TimeScale)
	}
	switch config.Delimiter {
	case "", ",", "\t", " ":
	default:
		return nil, common.InvalidInput(op, "unsupported delimiter %q", config.Delimiter)
	}

	return &Loader{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "recording_loader",
		}),
	}, nil
}

// Load reads the recording stored at path
func (l *Loader) Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	return l.LoadReader(f, path)
}

// LoadBytes reads a recording held in memory
func (l *Loader) LoadBytes(data []byte, name string) (*Recording, error) {
	if len(data) == 0 {
		return nil, common.InvalidInput("recording.Loader.LoadBytes", "empty recording data")
	}
	return l.LoadReader(bytes.NewReader(data), name)
}

// LoadReader reads a recording from r. name is used as the source and, after
// stripping compression suffixes, its extension picks the delimiter.
func (l *Loader) LoadReader(r io.Reader, name string) (*Recording, error) {
	const op = "recording.Loader.Load"

	logger := l.logger.WithFields(logging.Fields{
		"function": "LoadReader",
		"source":   name,
	})

	raw := bufio.NewReaderSize(r, 64*1024)
	compression, err := DetectCompression(raw)
	if err != nil {
		return nil, err
	}
	decompressed, err := decompress(raw, compression)
	if err != nil {
		return nil, err
	}
	if c, ok := decompressed.(io.Closer); ok {
		defer c.Close()
	}
	br := bufio.NewReaderSize(decompressed, 64*1024)

	tb := newTableBuilder(op)
	var format Format

	if isZip(br) {
		format = FormatExcel
		err = readWorkbook(br, l.config.Sheet, tb)
	} else {
		var delim rune
		delim, format, err = l.delimiter(br, name)
		if err != nil {
			return nil, err
		}
		if delim == ' ' {
			err = readWhitespace(br, tb)
		} else {
			err = readDelimited(br, delim, tb)
		}
	}
	if err != nil {
		logger.Error(err, "Failed to parse recording")
		return nil, err
	}

	timeScale := l.config.TimeScale
	if timeScale == 0 {
		timeScale = 1
	}
	sign := 1.0
	if l.config.Invert {
		sign = -1
	}

	times, sweeps, err := tb.sweeps(timeScale, sign)
	if err != nil {
		return nil, err
	}
	if err := validateTimeBase(op, times); err != nil {
		return nil, err
	}
	sampleRate, err := resolveSampleRate(op, times, l.config.SampleRate)
	if err != nil {
		return nil, err
	}

	rec := &Recording{
		Source:      name,
		Format:      format,
		Compression: compression,
		SampleRate:  sampleRate,
		Inverted:    l.config.Invert,
		Sweeps:      sweeps,
	}

	logger.Debug("Recording loaded", logging.Fields{
		"format":      string(format),
		"compression": compression.String(),
		"sweeps":      len(sweeps),
		"samples":     rec.Samples(),
		"sample_rate": sampleRate,
		"duration":    rec.Duration(),
	})

	return rec, nil
}

// delimiter resolves the column separator from config, file extension, then content
func (l *Loader) delimiter(br *bufio.Reader, name string) (rune, Format, error) {
	if l.config.Delimiter != "" {
		delim := rune(l.config.Delimiter[0])
		return delim, formatFor(delim), nil
	}

	switch dataExtension(name) {
	case ".csv":
		return ',', FormatCSV, nil
	case ".tsv", ".tab":
		return '\t', FormatTSV, nil
	}

	delim, err := sniffDelimiter(br)
	if err != nil {
		return 0, "", err
	}
	return delim, formatFor(delim), nil
}

func formatFor(delim rune) Format {
	switch delim {
	case ',':
		return FormatCSV
	case '\t':
		return FormatTSV
	default:
		return FormatText
	}
}

// dataExtension returns the lower-cased extension of name ignoring compression suffixes
func dataExtension(name string) string {
	base := strings.ToLower(filepath.Base(name))
	for _, suffix := range []string{".gz", ".bz2", ".xz"} {
		base = strings.TrimSuffix(base, suffix)
	}
	return filepath.Ext(base)
}
