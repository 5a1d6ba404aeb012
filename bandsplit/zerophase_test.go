package bandsplit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/d1nch8g/ringcap/apperr"
)

func sine(freq, amp float64, n, rate int) Signal {
	s := make([]float64, n)
	for i := range s {
		s[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return Signal{Samples: s, SampleRate: rate}
}

// middle drops the edges so measurements see the settled response only.
func middle(s Signal) Signal {
	n := len(s.Samples)
	return Signal{Samples: s.Samples[n/4 : 3*n/4], SampleRate: s.SampleRate}
}

func mustFilter(t *testing.T, band Band) *Filter {
	t.Helper()
	f, err := DesignFilter(band.LowHz, band.HighHz, testSR, DefaultOrder)
	require.NoError(t, err)
	return f
}

func TestApplyZeroPhasePreservesLength(t *testing.T) {
	f := mustFilter(t, DefaultBands()["mid"])
	for _, n := range []int{f.MinLength(), 100, 1023, 44100} {
		out, err := ApplyZeroPhase(f, sine(1000, 0.5, n, testSR))
		require.NoError(t, err)
		assert.Len(t, out.Samples, n)
		assert.Equal(t, testSR, out.SampleRate)
	}
}

func TestApplyZeroPhaseDoesNotModifyInput(t *testing.T) {
	f := mustFilter(t, DefaultBands()["mid"])
	in := sine(1000, 0.5, 2048, testSR)
	orig := append([]float64(nil), in.Samples...)
	_, err := ApplyZeroPhase(f, in)
	require.NoError(t, err)
	assert.Equal(t, orig, in.Samples)
}

func TestApplyZeroPhaseRejectsShortSignal(t *testing.T) {
	f := mustFilter(t, DefaultBands()["bass"])
	assert.Equal(t, 34, f.MinLength())

	_, err := ApplyZeroPhase(f, Signal{Samples: make([]float64, 33), SampleRate: testSR})
	assert.ErrorIs(t, err, ErrSignalTooShort)

	_, err = ApplyZeroPhase(f, Signal{Samples: make([]float64, 34), SampleRate: testSR})
	assert.NoError(t, err)
}

func TestApplyZeroPhaseRejectsRateMismatch(t *testing.T) {
	f := mustFilter(t, DefaultBands()["mid"])
	_, err := ApplyZeroPhase(f, sine(1000, 0.5, 4096, 48000))
	assert.ErrorIs(t, err, ErrSampleRateMismatch)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestApplyZeroPhaseImpulseStaysCentred(t *testing.T) {
	const n, at = 65536, 32768
	for name, band := range DefaultBands() {
		t.Run(name, func(t *testing.T) {
			impulse := make([]float64, n)
			impulse[at] = 1
			out, err := ApplyZeroPhase(mustFilter(t, band), Signal{Samples: impulse, SampleRate: testSR})
			require.NoError(t, err)

			mag := make([]float64, n)
			for i, v := range out.Samples {
				mag[i] = math.Abs(v)
			}
			assert.InDelta(t, at, floats.MaxIdx(mag), 1)

			// The zero-phase response is symmetric around the impulse.
			for k := 1; k < 64; k++ {
				assert.InDelta(t, out.Samples[at-k], out.Samples[at+k], 1e-9)
			}
		})
	}
}

func TestApplyZeroPhaseBandSelectivity(t *testing.T) {
	bands := DefaultBands()
	cases := []struct {
		freq float64
		band string
		pass bool
	}{
		{100, "bass", true},
		{100, "mid", false},
		{1000, "mid", true},
		{1000, "bass", false},
		{1000, "treble", false},
		{10000, "treble", true},
		{10000, "bass", false},
	}
	for _, tc := range cases {
		in := sine(tc.freq, 0.5, testSR, testSR)
		out, err := ApplyZeroPhase(mustFilter(t, bands[tc.band]), in)
		require.NoError(t, err)

		ratio := middle(out).RMS() / middle(in).RMS()
		if tc.pass {
			assert.InDelta(t, 1.0, ratio, 0.02, "%vHz through %s", tc.freq, tc.band)
		} else {
			assert.LessOrEqual(t, 20*math.Log10(ratio), -40.0, "%vHz through %s", tc.freq, tc.band)
		}
	}
}

func TestSteadyStateStartHasNoTransient(t *testing.T) {
	f := mustFilter(t, Band{LowHz: 250, HighHz: 4000})

	buf := make([]float64, 200)
	for i := range buf {
		buf[i] = 0.7
	}
	f.run(buf, f.steadyState(), 0.7)
	for i, y := range buf {
		require.InDelta(t, 0, y, 1e-9, "sample %d", i)
	}

	// A cascade started from rest rings on the same step.
	cold := make([]float64, 200)
	for i := range cold {
		cold[i] = 0.7
	}
	f.Chain().ProcessBlock(cold)
	peak := math.Max(floats.Max(cold), -floats.Min(cold))
	assert.Greater(t, peak, 0.01)
}

func TestChainPassesCentreAtUnityGain(t *testing.T) {
	f := mustFilter(t, Band{LowHz: 250, HighHz: 4000})
	sig := sine(f.CentreHz(), 0.5, testSR, testSR)

	f.Chain().ProcessBlock(sig.Samples)
	tail := sig.Samples[len(sig.Samples)*3/4:]
	assert.InDelta(t, 0.5, floats.Max(tail), 0.005)
}
