package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/d1nch8g/ringcap/apperr"
	"github.com/d1nch8g/ringcap/bandsplit"
)

// EnvPrefix is prepended to every environment variable, e.g. RINGCAP_SAMPLE_RATE.
const EnvPrefix = "RINGCAP"

type Config struct {
	// capture session
	BufferSeconds float64 `mapstructure:"buffer_seconds" validate:"gt=0"`
	SampleRate    int     `mapstructure:"sample_rate" validate:"gt=0"`
	ChunkSize     int     `mapstructure:"chunk_size" validate:"gt=0"`
	DeviceIndex   int     `mapstructure:"device_index" validate:"gte=-1"`
	Source        string  `mapstructure:"source" validate:"oneof=portaudio tone"`
	ToneHz        float64 `mapstructure:"tone_hz" validate:"gt=0"`

	// filter session
	FilterOrder int    `mapstructure:"filter_order" validate:"gte=1,lte=16"`
	Bands       string `mapstructure:"bands" validate:"required"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `mapstructure:"log_file"`

	Output string `mapstructure:"output" validate:"required"`
	Input  string `mapstructure:"input"`
}

func setDefault(v *viper.Viper) {
	v.SetDefault("BUFFER_SECONDS", 30)
	v.SetDefault("SAMPLE_RATE", 44100)
	v.SetDefault("CHUNK_SIZE", 1024)
	v.SetDefault("DEVICE_INDEX", -1)
	v.SetDefault("SOURCE", "portaudio")
	v.SetDefault("TONE_HZ", 440)

	v.SetDefault("FILTER_ORDER", bandsplit.DefaultOrder)
	v.SetDefault("BANDS", "bass=20:250,mid=250:4000,treble=4000:20000")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "ringcap.log")

	v.SetDefault("OUTPUT", "out.wav")
	v.SetDefault("INPUT", "")
}

// Load reads configuration from, lowest to highest precedence: defaults, a
// .env file (ENV_PATH or ./.env), the environment, and flags that were set
// on the command line.
func Load(flags *pflag.FlagSet) (*Config, error) {
	envFile := ".env"
	if path := os.Getenv("ENV_PATH"); path != "" {
		envFile = path
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefault(v)

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfiguration, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks field constraints and the band list.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrConfiguration, err)
	}
	if _, err := c.BandSet(); err != nil {
		return err
	}
	return nil
}

// BandSet parses Bands.
func (c *Config) BandSet() (bandsplit.BandSet, error) {
	return ParseBands(c.Bands)
}
