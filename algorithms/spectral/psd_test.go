package spectral

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/algorithms/windowing"
)

func sinusoid(n int, fs, f0, amplitude float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amplitude * math.Sin(2*math.Pi*f0*float64(i)/fs)
	}
	return x
}

func TestNewSpectralAnalyzerRejectsBadRate(t *testing.T) {
	for _, fs := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if _, err := NewSpectralAnalyzer(fs); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("fs=%v: expected ErrInvalidInput, got %v", fs, err)
		}
	}
	if _, err := NewSpectralAnalyzerWithParams(1000, PSDParams{Window: "kaiser"}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown window, got %v", err)
	}
}

func TestComputePSDShape(t *testing.T) {
	rng := rand.New(rand.NewPCG(0, 1))
	signal := make([]float64, 1000)
	for i := range signal {
		signal[i] = rng.NormFloat64()
	}

	analyzer, err := NewSpectralAnalyzer(1000)
	if err != nil {
		t.Fatal(err)
	}
	psd, err := analyzer.ComputePSD(signal)
	if err != nil {
		t.Fatal(err)
	}

	if len(psd.Frequencies) != 501 || len(psd.Power) != 501 {
		t.Fatalf("expected 501 bins, got %d/%d", len(psd.Frequencies), len(psd.Power))
	}
	if psd.Frequencies[0] != 0 || psd.Frequencies[500] != 500 {
		t.Fatalf("frequency range [%v, %v], want [0, 500]", psd.Frequencies[0], psd.Frequencies[500])
	}
	for i := 1; i < len(psd.Frequencies); i++ {
		if psd.Frequencies[i] <= psd.Frequencies[i-1] {
			t.Fatalf("frequencies not ascending at %d", i)
		}
	}
	for i, p := range psd.Power {
		if p < 0 || math.IsNaN(p) {
			t.Fatalf("power[%d] = %v", i, p)
		}
	}
}

func TestComputePSDSinusoidPeak(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		fs, f0 float64
		window windowing.Type
	}{
		{"hamming 50Hz", 1000, 1000, 50, windowing.Hamming},
		{"hann off-bin", 2048, 50000, 1234.5, windowing.Hann},
		{"blackman odd length", 999, 1000, 120, windowing.Blackman},
		{"rectangular", 512, 8000, 1000, windowing.Rectangular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer, err := NewSpectralAnalyzerWithParams(tt.fs, PSDParams{Window: tt.window, Detrend: true})
			if err != nil {
				t.Fatal(err)
			}
			psd, err := analyzer.ComputePSD(sinusoid(tt.n, tt.fs, tt.f0, 3))
			if err != nil {
				t.Fatal(err)
			}

			peak := 0
			for k, p := range psd.Power {
				if p > psd.Power[peak] {
					peak = k
				}
			}
			if math.Abs(psd.Frequencies[peak]-tt.f0) > psd.Resolution {
				t.Fatalf("peak at %v Hz, want %v +/- %v", psd.Frequencies[peak], tt.f0, psd.Resolution)
			}
		})
	}
}

func TestComputePSDParseval(t *testing.T) {
	// rectangular window without detrending: sum(P) * df equals the mean square
	rng := rand.New(rand.NewPCG(7, 7))
	signal := make([]float64, 1024)
	meanSquare := 0.0
	for i := range signal {
		signal[i] = 2 + rng.NormFloat64()
		meanSquare += signal[i] * signal[i]
	}
	meanSquare /= float64(len(signal))

	analyzer, err := NewSpectralAnalyzerWithParams(500, PSDParams{Window: windowing.Rectangular})
	if err != nil {
		t.Fatal(err)
	}
	psd, err := analyzer.ComputePSD(signal)
	if err != nil {
		t.Fatal(err)
	}

	total := 0.0
	for _, p := range psd.Power {
		total += p * psd.Resolution
	}
	if math.Abs(total-meanSquare) > 1e-9*meanSquare {
		t.Fatalf("integrated power %v, want %v", total, meanSquare)
	}
}

func TestComputePSDDetrendRemovesDC(t *testing.T) {
	signal := make([]float64, 256)
	for i := range signal {
		signal[i] = 10
	}
	analyzer, err := NewSpectralAnalyzer(256)
	if err != nil {
		t.Fatal(err)
	}
	psd, err := analyzer.ComputePSD(signal)
	if err != nil {
		t.Fatal(err)
	}
	for k, p := range psd.Power {
		if p > 1e-20 {
			t.Fatalf("bin %d has power %v after detrending a constant", k, p)
		}
	}
}

func TestComputePSDIsPure(t *testing.T) {
	signal := sinusoid(128, 128, 8, 1)
	orig := make([]float64, len(signal))
	copy(orig, signal)

	analyzer, _ := NewSpectralAnalyzer(128)
	a, err := analyzer.ComputePSD(signal)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := analyzer.ComputePSD(signal)
	for i := range signal {
		if signal[i] != orig[i] {
			t.Fatal("input modified")
		}
	}
	for i := range a.Power {
		if a.Power[i] != b.Power[i] {
			t.Fatal("repeated calls differ")
		}
	}
}

func TestComputePSDErrors(t *testing.T) {
	analyzer, _ := NewSpectralAnalyzer(100)
	if _, err := analyzer.ComputePSD([]float64{1}); !errors.Is(err, common.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := analyzer.ComputePSD([]float64{1, math.NaN(), 2}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
