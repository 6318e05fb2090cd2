package logging

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the writer, level and format of a zerolog-backed logger
type Config struct {
	Level  string    `json:"level" yaml:"level"`
	Format string    `json:"format" yaml:"format"` // "console" or "json"
	Output io.Writer `json:"-" yaml:"-"`
}

// ZerologLogger implements Logger on top of zerolog.
// Debug/Info/Warn/Error are written as they arrive; Fatal exits the process after writing.
type ZerologLogger struct {
	zl     zerolog.Logger
	level  *atomic.Int32 // Level, shared with children
	fields Fields
}

// NewDefaultLogger creates a console logger on stderr at info level
func NewDefaultLogger() *ZerologLogger {
	logger, _ := New(Config{Level: "info", Format: "console"})
	return logger
}

// New builds a logger from cfg
func New(cfg Config) (*ZerologLogger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch cfg.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	shared := new(atomic.Int32)
	shared.Store(int32(level))

	return &ZerologLogger{
		zl:     zerolog.New(out).With().Timestamp().Logger(),
		level:  shared,
		fields: make(Fields),
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}

func (z *ZerologLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < Level(z.level.Load()) {
		return
	}

	event := z.zl.WithLevel(toZerologLevel(level))
	if len(z.fields) > 0 {
		event = event.Fields(map[string]any(z.fields))
	}
	for _, f := range fields {
		event = event.Fields(map[string]any(f))
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

func (z *ZerologLogger) Debug(msg string, fields ...Fields) {
	z.log(DebugLevel, nil, msg, fields...)
}

func (z *ZerologLogger) Info(msg string, fields ...Fields) {
	z.log(InfoLevel, nil, msg, fields...)
}

func (z *ZerologLogger) Warn(msg string, fields ...Fields) {
	z.log(WarnLevel, nil, msg, fields...)
}

func (z *ZerologLogger) Error(err error, msg string, fields ...Fields) {
	z.log(ErrorLevel, err, msg, fields...)
}

func (z *ZerologLogger) Fatal(err error, msg string, fields ...Fields) {
	z.log(FatalLevel, err, msg, fields...)
	os.Exit(1)
}

// WithFields returns a child logger; the level stays shared with the parent
func (z *ZerologLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(z.fields)+len(fields))
	maps.Copy(merged, z.fields)
	maps.Copy(merged, fields)

	return &ZerologLogger{
		zl:     z.zl,
		level:  z.level,
		fields: merged,
	}
}

func (z *ZerologLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return z.WithFields(fields)
	}
	return z
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.level.Store(int32(level))
}
