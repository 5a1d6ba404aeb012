package bandsplit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/d1nch8g/ringcap/apperr"
)

var (
	// ErrSignalTooShort is returned for signals no longer than the edge
	// padding; see Filter.MinLength.
	ErrSignalTooShort     = errors.New("bandsplit: signal too short for zero-phase filtering")
	ErrSampleRateMismatch = errors.New("bandsplit: signal sample rate does not match filter")
)

// padLen is the odd-extension length added at each end before filtering.
func (f *Filter) padLen() int {
	return 3 * (2*len(f.sections) + 1)
}

// MinLength is the shortest signal ApplyZeroPhase accepts.
func (f *Filter) MinLength() int { return f.padLen() + 1 }

// steadyState returns per-section delay lines that make the cascade start
// settled for a unit step input.
func (f *Filter) steadyState() [][2]float64 {
	zi := make([][2]float64, len(f.sections))
	scale := 1.0
	for i, c := range f.sections {
		y := dcGain(c)
		d1 := c.B2 - c.A2*y
		d0 := c.B1 - c.A1*y + d1
		zi[i] = [2]float64{d0 * scale, d1 * scale}
		scale *= y
	}
	return zi
}

// run filters buf in place through a new cascade whose delay lines start
// at zi scaled by x0.
func (f *Filter) run(buf []float64, zi [][2]float64, x0 float64) {
	state := make([][2]float64, len(zi))
	for i, z := range zi {
		state[i] = [2]float64{z[0] * x0, z[1] * x0}
	}
	chain := f.Chain()
	chain.SetState(state)
	chain.ProcessBlock(buf)
}

// ApplyZeroPhase filters sig forward and then backward so the phase shifts
// cancel and transients stay where they were. The signal is extended at both
// ends by odd reflection and each pass starts from steady state, which keeps
// edge transients small. The output has the same length as the input.
func ApplyZeroPhase(f *Filter, sig Signal) (Signal, error) {
	if sig.SampleRate != f.spec.SampleRate {
		return Signal{}, fmt.Errorf("%w: %w: signal %dHz, filter %dHz",
			apperr.ErrConfiguration, ErrSampleRateMismatch, sig.SampleRate, f.spec.SampleRate)
	}
	n := len(sig.Samples)
	pad := f.padLen()
	if n <= pad {
		return Signal{}, fmt.Errorf("%w: %d samples, need at least %d", ErrSignalTooShort, n, pad+1)
	}

	x := sig.Samples
	ext := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		ext[i] = 2*x[0] - x[pad-i]
		ext[n+pad+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)

	zi := f.steadyState()
	f.run(ext, zi, ext[0])
	slices.Reverse(ext)
	f.run(ext, zi, ext[0])
	slices.Reverse(ext)

	out := make([]float64, n)
	copy(out, ext[pad:pad+n])
	return Signal{Samples: out, SampleRate: sig.SampleRate}, nil
}
