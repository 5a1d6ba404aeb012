package wavfile

import "math"

const fullScale = 32768.0

// Downmix averages interleaved channels into one.
func Downmix(pcm PCM) PCM {
	if pcm.Channels <= 1 {
		return pcm
	}

	frames := pcm.Frames()
	mono := make([]int16, frames)
	for f := 0; f < frames; f++ {
		sum := 0
		for c := 0; c < pcm.Channels; c++ {
			sum += int(pcm.Samples[f*pcm.Channels+c])
		}
		mono[f] = int16(sum / pcm.Channels)
	}

	return PCM{SampleRate: pcm.SampleRate, Channels: 1, Samples: mono}
}

// ToFloat maps samples to [-1, 1).
func ToFloat(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / fullScale
	}
	return out
}

// FromFloat maps [-1, 1) back to 16 bits, clipping out-of-range values.
func FromFloat(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		s := math.Round(v * fullScale)
		switch {
		case s > math.MaxInt16:
			s = math.MaxInt16
		case s < math.MinInt16:
			s = math.MinInt16
		}
		out[i] = int16(s)
	}
	return out
}
