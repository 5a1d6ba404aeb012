// Package wavfile reads and writes 16-bit PCM RIFF/WAVE files.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	BitDepth  = 16
	pcmFormat = 1
)

var ErrInvalidFile = errors.New("wavfile: not a valid wav file")

// PCM is an interleaved sample stream.
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames returns the number of samples per channel.
func (p PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Seconds returns the playing time.
func (p PCM) Seconds() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Write encodes pcm as 16-bit PCM.
func Write(w io.WriteSeeker, pcm PCM) error {
	if pcm.SampleRate <= 0 || pcm.Channels <= 0 {
		return fmt.Errorf("wavfile: invalid format: rate=%d channels=%d", pcm.SampleRate, pcm.Channels)
	}

	data := make([]int, len(pcm.Samples))
	for i, s := range pcm.Samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(w, pcm.SampleRate, BitDepth, pcm.Channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: pcm.Channels, SampleRate: pcm.SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize header: %w", err)
	}
	return nil
}

// WriteFile writes pcm to path through a temporary sibling, replacing any
// existing file only once the encode succeeded.
func WriteFile(path string, pcm PCM) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, pcm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Read decodes a PCM wav stream. Samples of other integer widths are
// rescaled to 16 bits; float and compressed encodings are rejected.
func Read(r io.ReadSeeker) (PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, ErrInvalidFile
	}
	if dec.WavAudioFormat != pcmFormat {
		return PCM{}, fmt.Errorf("%w: audio format %d is not integer PCM", ErrInvalidFile, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("failed to decode samples: %w", err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = rescale(v, int(dec.BitDepth))
	}

	return PCM{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    samples,
	}, nil
}

// ReadFile opens path and decodes it with Read.
func ReadFile(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, err
	}
	defer f.Close()
	return Read(f)
}

func rescale(v, depth int) int16 {
	switch depth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}
