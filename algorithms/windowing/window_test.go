package windowing

import (
	"math"
	"testing"
)

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(Hamming, 0, false); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := New(Type("kaiser"), 8, false); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestHammingCoefficients(t *testing.T) {
	w, err := New(Hamming, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.08, 0.54, 1.0, 0.54, 0.08}
	for i, c := range w.Coefficients() {
		if math.Abs(c-want[i]) > 1e-12 {
			t.Fatalf("coefficient %d: got %v, want %v", i, c, want[i])
		}
	}
}

func TestPeriodicWindowsStartAtMinimum(t *testing.T) {
	for _, kind := range []Type{Hamming, Hann, Blackman} {
		w, err := New(kind, 64, false)
		if err != nil {
			t.Fatal(err)
		}
		c := w.Coefficients()
		// periodic form: peak at n/2, c[1] == c[n-1]
		if math.Abs(c[1]-c[63]) > 1e-12 {
			t.Errorf("%s: periodic symmetry broken: %v vs %v", kind, c[1], c[63])
		}
		if math.Abs(c[32]-1.0) > 1e-12 {
			t.Errorf("%s: expected unit peak at center, got %v", kind, c[32])
		}
	}
}

func TestApplyAndEnergy(t *testing.T) {
	w, err := New(Rectangular, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	if w.Energy() != 4 {
		t.Fatalf("rectangular energy = %v, want 4", w.Energy())
	}
	out, err := w.Apply([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if out[3] != 4 {
		t.Fatalf("unexpected output %v", out)
	}
	if _, err := w.Apply([]float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestParseType(t *testing.T) {
	for _, kind := range Types() {
		got, err := ParseType(string(kind))
		if err != nil || got != kind {
			t.Fatalf("ParseType(%q) = %v, %v", kind, got, err)
		}
	}
	if _, err := ParseType("triangle"); err == nil {
		t.Fatal("expected error")
	}
}
