package temporal

import (
	"iter"
	"math"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// DefaultIntervalLength is the chunk duration in seconds used for local statistics
const DefaultIntervalLength = 5.0

// Chunk is a borrowed view of a contiguous range of a sample series.
// Times keep their original values; nothing is re-based.
type Chunk struct {
	Index      int       `json:"index"`
	Offset     int       `json:"offset"` // index of the first sample in the full series
	Amplitudes []float64 `json:"-"`
	Times      []float64 `json:"-"`
}

// Len returns the number of samples in the chunk
func (c Chunk) Len() int {
	return len(c.Amplitudes)
}

// Chunker partitions a sample series into fixed-duration windows
type Chunker struct {
	sampleRate        float64
	intervalLength    float64
	pointsPerInterval int
}

// NewChunker creates a chunker producing windows of round(sampleRate*intervalLength) samples
func NewChunker(sampleRate, intervalLength float64) (*Chunker, error) {
	const op = "temporal.NewChunker"

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, common.InvalidInput(op, "sample rate must be positive, got %v", sampleRate)
	}
	if !(intervalLength > 0) || math.IsInf(intervalLength, 0) {
		return nil, common.InvalidInput(op, "interval length must be positive, got %v", intervalLength)
	}

	points := math.Round(sampleRate * intervalLength)
	if points < 1 {
		return nil, common.InvalidInput(op, "interval of %vs at %v Hz holds no samples", intervalLength, sampleRate)
	}
	if points > math.MaxInt32 {
		return nil, common.InvalidInput(op, "interval of %vs at %v Hz is too long", intervalLength, sampleRate)
	}

	return &Chunker{
		sampleRate:        sampleRate,
		intervalLength:    intervalLength,
		pointsPerInterval: int(points),
	}, nil
}

// PointsPerInterval returns the length of every chunk except possibly the last
func (c *Chunker) PointsPerInterval() int {
	return c.pointsPerInterval
}

// Count returns the number of chunks produced for n samples, ceil(n/pointsPerInterval)
func (c *Chunker) Count(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + c.pointsPerInterval - 1) / c.pointsPerInterval
}

// Chunks returns a restartable sequence over consecutive, non-overlapping chunks of the
// series. The final chunk may be shorter; nothing is padded or dropped. The slices in each
// Chunk alias the inputs and must be treated as read-only.
func (c *Chunker) Chunks(amplitudes, times []float64) (iter.Seq[Chunk], error) {
	const op = "temporal.Chunker.Chunks"

	if len(amplitudes) == 0 {
		return nil, common.InvalidInput(op, "empty sample series")
	}
	if len(amplitudes) != len(times) {
		return nil, common.InvalidInput(op, "amplitudes (%d) and times (%d) lengths differ", len(amplitudes), len(times))
	}

	return func(yield func(Chunk) bool) {
		n := len(amplitudes)
		for index, start := 0, 0; start < n; index, start = index+1, start+c.pointsPerInterval {
			end := min(start+c.pointsPerInterval, n)
			chunk := Chunk{
				Index:      index,
				Offset:     start,
				Amplitudes: amplitudes[start:end:end],
				Times:      times[start:end:end],
			}
			if !yield(chunk) {
				return
			}
		}
	}, nil
}
