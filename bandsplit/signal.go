package bandsplit

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Signal is a mono sample sequence. Samples are nominally in [-1, 1)
// regardless of the width they were stored with.
type Signal struct {
	Samples    []float64
	SampleRate int
}

func (s Signal) Len() int { return len(s.Samples) }

func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// RMS returns the root mean square level, 0 for an empty signal.
func (s Signal) RMS() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	return floats.Norm(s.Samples, 2) / math.Sqrt(float64(len(s.Samples)))
}
