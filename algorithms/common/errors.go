package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure kinds of the analysis core.
// Every *AnalysisError unwraps to one of them, so callers can use errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrFitConvergence   = errors.New("fit did not converge")
	ErrInsufficientData = errors.New("insufficient data")
)

// ErrorKind tags an AnalysisError
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindFitConvergence
	KindInsufficientData
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindFitConvergence:
		return "fit_convergence"
	case KindInsufficientData:
		return "insufficient_data"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindFitConvergence:
		return ErrFitConvergence
	case KindInsufficientData:
		return ErrInsufficientData
	default:
		return nil
	}
}

// AnalysisError is returned by every core operation that fails
type AnalysisError struct {
	Kind ErrorKind `json:"kind"`
	Op   string    `json:"op"`
	Msg  string    `json:"msg"`
}

func (e *AnalysisError) Error() string {
	base := "unknown error"
	if s := e.Kind.sentinel(); s != nil {
		base = s.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", base, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, base, e.Msg)
}

func (e *AnalysisError) Unwrap() error {
	return e.Kind.sentinel()
}

// InvalidInput builds a KindInvalidInput error for operation op
func InvalidInput(op, format string, args ...any) error {
	return &AnalysisError{Kind: KindInvalidInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// FitConvergence builds a KindFitConvergence error for operation op
func FitConvergence(op, format string, args ...any) error {
	return &AnalysisError{Kind: KindFitConvergence, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientData builds a KindInsufficientData error for operation op
func InsufficientData(op, format string, args ...any) error {
	return &AnalysisError{Kind: KindInsufficientData, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, looking through wrapping
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrFitConvergence):
		return KindFitConvergence
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	}
	return KindUnknown
}
