package wavfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	in := PCM{SampleRate: 44100, Channels: 1, Samples: []int16{0, 1, -1, 32767, -32768, 1234, -4321}}

	require.NoError(t, WriteFile(path, in))
	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	in := PCM{SampleRate: 8000, Channels: 2, Samples: []int16{1, 2, 3, 4}}
	require.NoError(t, WriteFile(path, in))

	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteFileMissingDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "out.wav"), PCM{SampleRate: 8000, Channels: 1})
	assert.Error(t, err)
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data at all....................................."), 0o644))
	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestWriteFileIsWorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.wav")
	require.NoError(t, WriteFile(path, PCM{SampleRate: 8000, Channels: 1, Samples: []int16{1, 2}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestReadRejectsFloatEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	const ieeeFloat = 3
	enc := wav.NewEncoder(f, 8000, 32, 1, ieeeFloat)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{0, 1 << 20, -(1 << 20), 0},
		SourceBitDepth: 32,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	_, err = ReadFile(path)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestDownmix(t *testing.T) {
	stereo := PCM{SampleRate: 44100, Channels: 2, Samples: []int16{100, 200, -100, 100, 32767, 32767}}
	mono := Downmix(stereo)
	assert.Equal(t, 1, mono.Channels)
	assert.Equal(t, []int16{150, 0, 32767}, mono.Samples)

	same := PCM{SampleRate: 44100, Channels: 1, Samples: []int16{5}}
	assert.Equal(t, same, Downmix(same))
}

func TestFloatConversion(t *testing.T) {
	in := []int16{0, 16384, -16384, -32768, 32767}
	f := ToFloat(in)
	assert.InDelta(t, 0.5, f[1], 1e-12)
	assert.InDelta(t, -1.0, f[3], 1e-12)
	assert.Equal(t, in, FromFloat(f))

	assert.Equal(t, []int16{32767, -32768}, FromFloat([]float64{1.5, -2}))
}

func TestSeconds(t *testing.T) {
	p := PCM{SampleRate: 4, Channels: 2, Samples: make([]int16, 16)}
	assert.Equal(t, 8, p.Frames())
	assert.InDelta(t, 2.0, p.Seconds(), 1e-12)
}
