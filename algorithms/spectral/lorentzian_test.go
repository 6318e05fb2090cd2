package spectral

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

func syntheticLorentzian(s0, fc, noise float64, seed uint64) (freqs, power []float64) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	freqs = make([]float64, 200)
	power = make([]float64, 200)
	for i := range freqs {
		freqs[i] = 1 + float64(i)*999.0/199.0
		power[i] = Lorentzian(freqs[i], s0, fc) * (1 + noise*rng.NormFloat64())
	}
	return freqs, power
}

func TestLorentzianFitRecoversParameters(t *testing.T) {
	tests := []struct {
		name  string
		s0    float64
		fc    float64
		noise float64
	}{
		{"clean", 5, 100, 0},
		{"noisy", 5, 100, 0.02},
		{"small scale", 2e-4, 300, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freqs, power := syntheticLorentzian(tt.s0, tt.fc, tt.noise, 11)
			fitter, err := NewLorentzianFitter(freqs, power)
			if err != nil {
				t.Fatal(err)
			}
			params, err := fitter.Fit()
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if math.Abs(params.S0-tt.s0)/tt.s0 > 0.1 {
				t.Errorf("S0 = %v, want %v within 10%%", params.S0, tt.s0)
			}
			if math.Abs(params.Fc-tt.fc)/tt.fc > 0.1 {
				t.Errorf("fc = %v, want %v within 10%%", params.Fc, tt.fc)
			}

			stored, err := fitter.Parameters()
			if err != nil || stored != params {
				t.Errorf("Parameters() = %v, %v; want %v", stored, err, params)
			}
		})
	}
}

func TestLorentzianGuardsNonPositiveInputs(t *testing.T) {
	freqs, power := syntheticLorentzian(5, 100, 0, 3)
	freqs[0] = 0
	power[len(power)-1] = -0.001

	fitter, err := NewLorentzianFitter(freqs, power)
	if err != nil {
		t.Fatal(err)
	}
	params, err := fitter.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if math.IsNaN(params.S0) || math.IsNaN(params.Fc) || params.S0 <= 0 || params.Fc <= 0 {
		t.Fatalf("degenerate params %v", params)
	}
	// caller slices untouched
	if freqs[0] != 0 || power[len(power)-1] != -0.001 {
		t.Fatal("input slices were modified")
	}
	machineEps := math.Nextafter(1, 2) - 1
	if fitter.frequencies[0] != machineEps || fitter.power[len(power)-1] != machineEps {
		t.Errorf("non-positive inputs replaced by %v and %v, want %v",
			fitter.frequencies[0], fitter.power[len(power)-1], machineEps)
	}
}

func TestLorentzianEvaluate(t *testing.T) {
	freqs, power := syntheticLorentzian(5, 100, 0, 5)
	fitter, err := NewLorentzianFitter(freqs, power)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fitter.Evaluate(freqs); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("Evaluate before Fit: expected ErrInvalidInput, got %v", err)
	}

	if _, err := fitter.Fit(); err != nil {
		t.Fatal(err)
	}
	curve, err := fitter.Evaluate([]float64{0, 100})
	if err != nil {
		t.Fatal(err)
	}
	params, _ := fitter.Parameters()
	if math.Abs(curve[0]-params.S0) > 1e-12 {
		t.Errorf("curve at 0 Hz = %v, want S0 %v", curve[0], params.S0)
	}
	if math.Abs(curve[1]-params.S0/(1+math.Pow(100/params.Fc, 2))) > 1e-12 {
		t.Errorf("curve at 100 Hz = %v", curve[1])
	}

	ssr, err := fitter.Residual()
	if err != nil || ssr > 1e-6 {
		t.Errorf("Residual = %v, %v", ssr, err)
	}
}

func TestNewLorentzianFitterInvalidInput(t *testing.T) {
	tests := []struct {
		name         string
		freqs, power []float64
	}{
		{"empty", nil, nil},
		{"mismatch", []float64{1, 2, 3}, []float64{1, 2}},
		{"nan", []float64{1, 2}, []float64{1, math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLorentzianFitter(tt.freqs, tt.power); !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLorentzianFitOnPSD(t *testing.T) {
	// first-order low-pass filtered white noise has a Lorentzian spectrum
	const (
		fs = 10000.0
		fc = 200.0
		n  = 1 << 15
	)
	rng := rand.New(rand.NewPCG(42, 43))
	alpha := 1 - math.Exp(-2*math.Pi*fc/fs)
	signal := make([]float64, n)
	y := 0.0
	for i := range signal {
		y += alpha * (rng.NormFloat64() - y)
		signal[i] = y
	}

	analyzer, err := NewSpectralAnalyzer(fs)
	if err != nil {
		t.Fatal(err)
	}
	psd, err := analyzer.ComputePSD(signal)
	if err != nil {
		t.Fatal(err)
	}

	fitter, err := NewLorentzianFitter(psd.Frequencies, psd.Power)
	if err != nil {
		t.Fatal(err)
	}
	params, err := fitter.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if params.Fc < fc/2 || params.Fc > fc*2 {
		t.Errorf("fc = %v, want about %v", params.Fc, fc)
	}
}
