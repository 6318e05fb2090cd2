package windowing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Type names a window function
type Type string

const (
	Hamming     Type = "hamming"
	Hann        Type = "hann"
	Blackman    Type = "blackman"
	Bartlett    Type = "bartlett"
	Rectangular Type = "rectangular"
)

// Types lists the supported window functions
func Types() []Type {
	return []Type{Hamming, Hann, Blackman, Bartlett, Rectangular}
}

// ParseType converts a window name to a Type
func ParseType(name string) (Type, error) {
	for _, t := range Types() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported window type %q", name)
}

// Window holds precomputed coefficients of one window function
type Window struct {
	kind         Type
	size         int
	symmetric    bool
	coefficients []float64
}

// New creates a window of the given size. Periodic (symmetric=false) windows are the
// DFT-even form used for spectral estimation.
func New(kind Type, size int, symmetric bool) (*Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported window type %q", kind)
	}

	w := &Window{
		kind:         kind,
		size:         size,
		symmetric:    symmetric,
		coefficients: make([]float64, size),
	}

	if size == 1 {
		w.coefficients[0] = 1.0
		return w, nil
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}
	for i := range size {
		w.coefficients[i] = gen(float64(i), denominator)
	}
	return w, nil
}

var generators = map[Type]func(i, denominator float64) float64{
	Hamming: func(i, d float64) float64 {
		return 0.54 - 0.46*math.Cos(2*math.Pi*i/d)
	},
	Hann: func(i, d float64) float64 {
		return 0.5 * (1.0 - math.Cos(2*math.Pi*i/d))
	},
	Blackman: func(i, d float64) float64 {
		return 0.42 - 0.5*math.Cos(2*math.Pi*i/d) + 0.08*math.Cos(4*math.Pi*i/d)
	},
	Bartlett: func(i, d float64) float64 {
		return 1.0 - math.Abs(2*i/d-1.0)
	},
	Rectangular: func(i, d float64) float64 {
		return 1.0
	},
}

// Apply returns a windowed copy of signal
func (w *Window) Apply(signal []float64) ([]float64, error) {
	if len(signal) != w.size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	windowed := make([]float64, w.size)
	floats.MulTo(windowed, signal, w.coefficients)
	return windowed, nil
}

// Energy returns the sum of squared coefficients
func (w *Window) Energy() float64 {
	return floats.Dot(w.coefficients, w.coefficients)
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

func (w *Window) Size() int {
	return w.size
}

func (w *Window) Type() Type {
	return w.kind
}
