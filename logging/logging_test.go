package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func newJSONLogger(t *testing.T, level string) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newJSONLogger(t, "warn")

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept", Fields{"chunk": 3})
	logger.Error(errors.New("boom"), "also kept")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["level"] != "warn" || lines[0]["message"] != "kept" {
		t.Errorf("unexpected first line: %v", lines[0])
	}
	if lines[0]["chunk"] != float64(3) {
		t.Errorf("expected chunk field 3, got %v", lines[0]["chunk"])
	}
	if lines[1]["error"] != "boom" {
		t.Errorf("expected error field, got %v", lines[1])
	}
}

func TestWithFieldsAndContext(t *testing.T) {
	logger, buf := newJSONLogger(t, "debug")

	child := logger.WithFields(Fields{"component": "event_detector"})
	ctx := ContextWithFields(context.Background(), Fields{"sweep": 2})
	child.WithContext(ctx).Debug("chunk statistics", Fields{"mean": 1.5})

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["component"] != "event_detector" || entry["sweep"] != float64(2) || entry["mean"] != 1.5 {
		t.Errorf("fields not merged: %v", entry)
	}

	// the parent must not see child fields
	buf.Reset()
	logger.Info("parent")
	if _, ok := decodeLines(t, buf)[0]["component"]; ok {
		t.Error("parent logger picked up child fields")
	}
}

func TestSetLevelSharedWithChildren(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")
	child := logger.WithFields(Fields{"component": "x"})

	logger.SetLevel(ErrorLevel)
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}
}

func TestSetLevelConcurrentWithLogging(t *testing.T) {
	logger, err := New(Config{Level: "debug", Format: "json", Output: io.Discard})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := logger.WithFields(Fields{"component": "worker"})

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 200 {
				child.Info("tick", Fields{"worker": i})
			}
		}()
		go func() {
			defer wg.Done()
			for j := range 200 {
				logger.SetLevel(Level(j % 3))
			}
		}()
	}
	wg.Wait()

	logger.SetLevel(ErrorLevel)
	if got := Level(logger.level.Load()); got != ErrorLevel {
		t.Errorf("level = %v, want error", got)
	}
}

func TestGlobalLoggerNilDisables(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("expected NoOpLogger, got %T", GetGlobalLogger())
	}
	Info("nothing happens")
}
