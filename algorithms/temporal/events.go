package temporal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
	"github.com/RyanBlaney/sonido-pore/logging"
)

// DefaultMinDuration is the shortest blockade, in seconds, reported as an event
const DefaultMinDuration = 0.0001

// Event is one confirmed blockade. Times are in the same units as the sample times.
type Event struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
}

// DetectorParams holds the dual-threshold configuration
type DetectorParams struct {
	StdMultiplier       float64 `json:"std_multiplier"`       // arming level, mean - k*std
	ThresholdMultiplier float64 `json:"threshold_multiplier"` // confirming level, mean - k*std
	MinDuration         float64 `json:"min_duration"`
}

// DefaultDetectorParams returns 0.5/2.5 arming/confirming multipliers and a 0.1 ms minimum duration
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		StdMultiplier:       0.5,
		ThresholdMultiplier: 2.5,
		MinDuration:         DefaultMinDuration,
	}
}

// Thresholds are the levels derived from one chunk's statistics
type Thresholds struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Arming  float64 `json:"arming"`
	Confirm float64 `json:"confirm"`
}

// DetectorState is the state of the crossing state machine
type DetectorState int

const (
	StateIdle DetectorState = iota
	StateArmed
	StateConfirmed
)

func (s DetectorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("DetectorState(%d)", int(s))
	}
}

// Outcome reports what a single step of the state machine did
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeEmitted
	// OutcomeTooShort marks a confirmed crossing shorter than the minimum duration
	OutcomeTooShort
	// OutcomeNotConfirmed marks an arming released without reaching the confirming level
	OutcomeNotConfirmed
)

// crossingFSM tracks one candidate event across consecutive samples
type crossingFSM struct {
	thresholds  Thresholds
	minDuration float64
	state       DetectorState
	start       float64
}

func newCrossingFSM(th Thresholds, minDuration float64) *crossingFSM {
	return &crossingFSM{thresholds: th, minDuration: minDuration}
}

// step consumes the sample pair (prev, cur) where cur was taken at time t.
// The arming sample may also confirm.
func (m *crossingFSM) step(prev, cur, t float64) (Event, Outcome) {
	arming := m.thresholds.Arming

	if m.state == StateIdle && prev >= arming && cur < arming {
		m.state = StateArmed
		m.start = t
	}

	if m.state == StateIdle {
		return Event{}, OutcomeNone
	}

	if cur < m.thresholds.Confirm {
		m.state = StateConfirmed
	}

	if prev < arming && cur >= arming {
		confirmed := m.state == StateConfirmed
		event := Event{StartTime: m.start, EndTime: t, Duration: t - m.start}
		m.reset()

		switch {
		case !confirmed:
			return Event{}, OutcomeNotConfirmed
		case event.Duration < m.minDuration:
			return Event{}, OutcomeTooShort
		default:
			return event, OutcomeEmitted
		}
	}

	return Event{}, OutcomeNone
}

func (m *crossingFSM) reset() {
	m.state = StateIdle
	m.start = 0
}

// EventDetector finds blockade events in a single chunk
type EventDetector struct {
	params DetectorParams
	logger logging.Logger
}

// NewEventDetector creates a detector with the default parameters
func NewEventDetector() *EventDetector {
	ed, _ := NewEventDetectorWithParams(DefaultDetectorParams())
	return ed
}

// NewEventDetectorWithParams creates a detector with custom multipliers
func NewEventDetectorWithParams(params DetectorParams) (*EventDetector, error) {
	const op = "temporal.NewEventDetector"

	if !(params.StdMultiplier > 0) || math.IsInf(params.StdMultiplier, 0) {
		return nil, common.InvalidInput(op, "std multiplier must be positive, got %v", params.StdMultiplier)
	}
	if !(params.ThresholdMultiplier > 0) || math.IsInf(params.ThresholdMultiplier, 0) {
		return nil, common.InvalidInput(op, "threshold multiplier must be positive, got %v", params.ThresholdMultiplier)
	}
	if params.MinDuration < 0 || math.IsNaN(params.MinDuration) {
		return nil, common.InvalidInput(op, "min duration must not be negative, got %v", params.MinDuration)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "event_detector",
	})

	if params.ThresholdMultiplier <= params.StdMultiplier {
		logger.Warn("Confirming threshold is not stricter than arming threshold", logging.Fields{
			"std_multiplier":       params.StdMultiplier,
			"threshold_multiplier": params.ThresholdMultiplier,
		})
	}

	return &EventDetector{
		params: params,
		logger: logger,
	}, nil
}

// Params returns the detector configuration
func (ed *EventDetector) Params() DetectorParams {
	return ed.params
}

// ComputeThresholds returns the arming and confirming levels for a chunk.
// The standard deviation is the population one.
func (ed *EventDetector) ComputeThresholds(amplitudes []float64) (Thresholds, error) {
	const op = "temporal.EventDetector.ComputeThresholds"

	if len(amplitudes) < 2 {
		return Thresholds{}, common.InsufficientData(op, "need at least 2 samples, got %d", len(amplitudes))
	}
	if !common.AllFinite(amplitudes) {
		return Thresholds{}, common.InvalidInput(op, "amplitudes contain NaN or Inf")
	}

	mean, std := common.PopulationMeanStdDev(amplitudes)
	return Thresholds{
		Mean:    mean,
		StdDev:  std,
		Arming:  mean - ed.params.StdMultiplier*std,
		Confirm: mean - ed.params.ThresholdMultiplier*std,
	}, nil
}

// Detect scans one chunk and returns its events in time order. An event still open
// when the chunk ends is dropped. No events is an empty, non-nil slice.
func (ed *EventDetector) Detect(amplitudes, times []float64) ([]Event, error) {
	const op = "temporal.EventDetector.Detect"

	if len(amplitudes) != len(times) {
		return nil, common.InvalidInput(op, "amplitudes (%d) and times (%d) lengths differ", len(amplitudes), len(times))
	}
	if !common.AllFinite(times) {
		return nil, common.InvalidInput(op, "times contain NaN or Inf")
	}

	th, err := ed.ComputeThresholds(amplitudes)
	if err != nil {
		return nil, err
	}

	events := []Event{}
	if th.StdDev == 0 {
		return events, nil
	}

	fsm := newCrossingFSM(th, ed.params.MinDuration)
	var tooShort, unconfirmed int

	for i := 1; i < len(amplitudes); i++ {
		event, outcome := fsm.step(amplitudes[i-1], amplitudes[i], times[i])
		switch outcome {
		case OutcomeEmitted:
			events = append(events, event)
		case OutcomeTooShort:
			tooShort++
		case OutcomeNotConfirmed:
			unconfirmed++
		}
	}

	ed.logger.Debug("Scanned chunk", logging.Fields{
		"samples":     len(amplitudes),
		"mean":        th.Mean,
		"std_dev":     th.StdDev,
		"events":      len(events),
		"too_short":   tooShort,
		"unconfirmed": unconfirmed,
		"open_at_end": fsm.state != StateIdle,
	})

	return events, nil
}
