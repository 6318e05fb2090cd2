package common

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPopulationMeanStdDev(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		wantMean float64
		wantStd  float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{4}, 4, 0},
		{"constant", []float64{2, 2, 2, 2}, 2, 0},
		{"known", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := PopulationMeanStdDev(tt.data)
			if !almostEqual(mean, tt.wantMean, 1e-12) || !almostEqual(std, tt.wantStd, 1e-12) {
				t.Fatalf("got (%v, %v), want (%v, %v)", mean, std, tt.wantMean, tt.wantStd)
			}
		})
	}
}

func TestMedianDoesNotMutate(t *testing.T) {
	data := []float64{5, 1, 3, 2}
	if got := Median(data); got != 2.5 {
		t.Fatalf("Median = %v, want 2.5", got)
	}
	if data[0] != 5 || data[3] != 2 {
		t.Fatalf("input was reordered: %v", data)
	}
	if got := Median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("Median odd = %v, want 2", got)
	}
	if got := Median(nil); got != 0 {
		t.Fatalf("Median empty = %v, want 0", got)
	}
}

func TestReplaceNonPositive(t *testing.T) {
	got := ReplaceNonPositive([]float64{-1, 0, 2}, 1e-9)
	want := []float64{1e-9, 1e-9, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAllFiniteAndIncreasing(t *testing.T) {
	if AllFinite([]float64{1, math.NaN()}) {
		t.Error("NaN reported finite")
	}
	if !AllFinite([]float64{1, 2}) {
		t.Error("finite slice reported non-finite")
	}
	if IsStrictlyIncreasing([]float64{0, 1, 1}) {
		t.Error("repeated value reported strictly increasing")
	}
	if !IsStrictlyIncreasing([]float64{0, 0.5, 1}) {
		t.Error("increasing slice rejected")
	}
}

func TestAnalysisErrorKinds(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		kind     ErrorKind
	}{
		{InvalidInput("fit", "unknown kind %q", "triple"), ErrInvalidInput, KindInvalidInput},
		{FitConvergence("fit", "status %s", "IterationLimit"), ErrFitConvergence, KindFitConvergence},
		{InsufficientData("detect", "%d samples", 1), ErrInsufficientData, KindInsufficientData},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("sweep 0: %w", tt.err)
		if !errors.Is(wrapped, tt.sentinel) {
			t.Errorf("%v does not match sentinel %v", wrapped, tt.sentinel)
		}
		if KindOf(wrapped) != tt.kind {
			t.Errorf("KindOf(%v) = %v, want %v", wrapped, KindOf(wrapped), tt.kind)
		}
	}

	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain error should have unknown kind")
	}
	if got := InvalidInput("fit", "unknown kind %q", "triple").Error(); got != `fit: invalid input: unknown kind "triple"` {
		t.Errorf("unexpected message %q", got)
	}
}
