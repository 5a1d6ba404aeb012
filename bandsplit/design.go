// Package bandsplit decomposes a signal into named frequency bands with
// zero-phase Butterworth bandpass filters.
package bandsplit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"

	"github.com/d1nch8g/ringcap/apperr"
)

var (
	// ErrInvalidRange is returned unless 0 < low < high < sampleRate/2.
	ErrInvalidRange = errors.New("bandsplit: invalid band range")
	ErrInvalidOrder = errors.New("bandsplit: invalid filter order")
)

// DefaultOrder is the Butterworth prototype order used when none is configured.
const DefaultOrder = 5

// FilterSpec describes one bandpass filter.
type FilterSpec struct {
	LowHz      float64
	HighHz     float64
	SampleRate int
	Order      int
}

// Validate checks the band edges against the Nyquist frequency.
func (s FilterSpec) Validate() error {
	nyquist := float64(s.SampleRate) / 2
	if s.SampleRate <= 0 || !(s.LowHz > 0) || s.LowHz >= s.HighHz || s.HighHz >= nyquist {
		return fmt.Errorf("%w: %w: low=%vHz high=%vHz nyquist=%vHz",
			apperr.ErrConfiguration, ErrInvalidRange, s.LowHz, s.HighHz, nyquist)
	}
	if s.Order < 1 {
		return fmt.Errorf("%w: %w: %d", apperr.ErrConfiguration, ErrInvalidOrder, s.Order)
	}
	return nil
}

// dcGain is H(1) of one section.
func dcGain(c biquad.Coefficients) float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}
	return (c.B0 + c.B1 + c.B2) / den
}

// Filter is a designed bandpass cascade. It holds no processing state and
// may be shared between goroutines.
type Filter struct {
	spec     FilterSpec
	sections []biquad.Coefficients
}

// DesignFilter builds a digital Butterworth bandpass from an analog prototype
// of the given order. The result has 2*order poles arranged as order
// second-order sections, -3 dB at low and high and unity gain at the centre.
func DesignFilter(low, high float64, sampleRate, order int) (*Filter, error) {
	return Design(FilterSpec{LowHz: low, HighHz: high, SampleRate: sampleRate, Order: order})
}

// Design is DesignFilter taking a FilterSpec.
func Design(spec FilterSpec) (*Filter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	fs := float64(spec.SampleRate)
	k := 2 * fs
	// Prewarp the edges so the bilinear transform lands them exactly.
	wl := k * math.Tan(math.Pi*spec.LowHz/fs)
	wh := k * math.Tan(math.Pi*spec.HighHz/fs)
	w0 := math.Sqrt(wl * wh)
	bw := wh - wl

	bilinear := func(s complex128) complex128 {
		return (complex(k, 0) + s) / (complex(k, 0) - s)
	}
	conjugatePair := func(s complex128) biquad.Coefficients {
		z := bilinear(s)
		return biquad.Coefficients{A1: -2 * real(z), A2: real(z)*real(z) + imag(z)*imag(z)}
	}

	n := spec.Order
	sections := make([]biquad.Coefficients, 0, n)

	// Upper-half-plane prototype poles; their conjugates yield the
	// conjugate bandpass poles, so each contributes two sections.
	for i := 0; 2*i+n+1 < 2*n; i++ {
		p := cmplx.Exp(complex(0, math.Pi*float64(2*i+n+1)/float64(2*n)))
		a := p * complex(bw/2, 0)
		d := cmplx.Sqrt(a*a - complex(w0*w0, 0))
		sections = append(sections, conjugatePair(a+d), conjugatePair(a-d))
	}

	// Odd orders have the real prototype pole at -1.
	if n%2 == 1 {
		a := -bw / 2
		disc := a*a - w0*w0
		if disc < 0 {
			sections = append(sections, conjugatePair(complex(a, math.Sqrt(-disc))))
		} else {
			z1 := real(bilinear(complex(a+math.Sqrt(disc), 0)))
			z2 := real(bilinear(complex(a-math.Sqrt(disc), 0)))
			sections = append(sections, biquad.Coefficients{A1: -(z1 + z2), A2: z1 * z2})
		}
	}

	// Every section gets one zero at DC and one at Nyquist, scaled so the
	// cascade has unity gain at the digital image of w0.
	centre := centreHz(spec)
	for i := range sections {
		sections[i].B0, sections[i].B1, sections[i].B2 = 1, 0, -1
		g := cmplx.Abs(sections[i].Response(centre, fs))
		if g > 0 {
			sections[i].B0 /= g
			sections[i].B2 /= g
		}
	}

	return &Filter{spec: spec, sections: sections}, nil
}

// Spec returns the parameters the filter was designed from.
func (f *Filter) Spec() FilterSpec { return f.spec }

// Sections returns a copy of the cascade coefficients.
func (f *Filter) Sections() []biquad.Coefficients {
	out := make([]biquad.Coefficients, len(f.sections))
	copy(out, f.sections)
	return out
}

// Chain returns a new cascade with zero state.
func (f *Filter) Chain() *biquad.Chain { return biquad.NewChain(f.sections) }

// Response computes the complex frequency response of the full cascade.
func (f *Filter) Response(freqHz float64) complex128 {
	return f.Chain().Response(freqHz, float64(f.spec.SampleRate))
}

// MagnitudeDB returns 20*log10|H(f)| for a single pass.
func (f *Filter) MagnitudeDB(freqHz float64) float64 {
	return f.Chain().MagnitudeDB(freqHz, float64(f.spec.SampleRate))
}

// CentreHz is the geometric centre of the band after prewarping.
func (f *Filter) CentreHz() float64 { return centreHz(f.spec) }

func centreHz(spec FilterSpec) float64 {
	fs := float64(spec.SampleRate)
	tl := math.Tan(math.Pi * spec.LowHz / fs)
	th := math.Tan(math.Pi * spec.HighHz / fs)
	return math.Atan(math.Sqrt(tl*th)) * fs / math.Pi
}
