package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1nch8g/ringcap/apperr"
	"github.com/d1nch8g/ringcap/bandsplit"
)

// isolate points ENV_PATH at a missing file so a developer's .env does not
// leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 30.0, cfg.BufferSeconds)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 1024, cfg.ChunkSize)
	assert.Equal(t, -1, cfg.DeviceIndex)
	assert.Equal(t, "portaudio", cfg.Source)
	assert.Equal(t, 5, cfg.FilterOrder)
	assert.Equal(t, "info", cfg.LogLevel)

	bands, err := cfg.BandSet()
	require.NoError(t, err)
	assert.Equal(t, bandsplit.DefaultBands(), bands)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("RINGCAP_SAMPLE_RATE", "48000")
	t.Setenv("RINGCAP_BUFFER_SECONDS", "12.5")
	t.Setenv("RINGCAP_SOURCE", "tone")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 12.5, cfg.BufferSeconds)
	assert.Equal(t, "tone", cfg.Source)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RINGCAP_CHUNK_SIZE=512\n"), 0o644))
	t.Setenv("ENV_PATH", path)
	// godotenv does not override existing variables; make sure it is unset
	// and restored afterwards.
	t.Setenv("RINGCAP_CHUNK_SIZE", "")
	os.Unsetenv("RINGCAP_CHUNK_SIZE")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.ChunkSize)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("RINGCAP_CHUNK_SIZE", "256")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("chunk-size", 1024, "")
	flags.String("output", "out.wav", "")
	require.NoError(t, flags.Parse([]string{"--chunk-size=2048"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.ChunkSize)
	assert.Equal(t, "out.wav", cfg.Output)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"RINGCAP_BUFFER_SECONDS": "0",
		"RINGCAP_CHUNK_SIZE":     "-4",
		"RINGCAP_DEVICE_INDEX":   "-7",
		"RINGCAP_SOURCE":         "cassette",
		"RINGCAP_LOG_LEVEL":      "loud",
		"RINGCAP_FILTER_ORDER":   "0",
		"RINGCAP_BANDS":          "bass=300:250",
	} {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)
			_, err := Load(nil)
			assert.ErrorIs(t, err, apperr.ErrConfiguration)
		})
	}
}

func TestParseBands(t *testing.T) {
	bands, err := ParseBands(" low = 10:100 , high=100:1000,")
	require.NoError(t, err)
	assert.Equal(t, bandsplit.BandSet{
		"low":  {LowHz: 10, HighHz: 100},
		"high": {LowHz: 100, HighHz: 1000},
	}, bands)
}

func TestParseBandsErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"bass",
		"=20:250",
		"bass=20",
		"bass=x:250",
		"bass=20:y",
		"bass=300:250",
		"bass=0:250",
		"bass=20:250,bass=30:300",
	} {
		_, err := ParseBands(s)
		assert.ErrorIs(t, err, apperr.ErrConfiguration, s)
	}

	_, err := ParseBands("bass=300:250")
	assert.ErrorIs(t, err, bandsplit.ErrInvalidRange)
}
