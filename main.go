package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/d1nch8g/ringcap/audio"
	"github.com/d1nch8g/ringcap/bandsplit"
	"github.com/d1nch8g/ringcap/config"
	"github.com/d1nch8g/ringcap/engine"
	"github.com/d1nch8g/ringcap/logging"
	"github.com/d1nch8g/ringcap/sound"
	"github.com/d1nch8g/ringcap/wavfile"
)

const usage = `Usage: ringcap <command> [flags]

Commands:
  record    capture into a rolling buffer; Enter saves a snapshot, Ctrl-C stops and saves
  split     split a wav file into frequency bands
  play      play a wav file
  devices   list input devices
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := pflag.NewFlagSet(command, pflag.ExitOnError)
	flags.Float64("buffer-seconds", 30, "seconds of audio kept in the buffer")
	flags.Int("sample-rate", 44100, "capture sample rate in Hz")
	flags.Int("chunk-size", 1024, "frames per capture callback")
	flags.Int("device-index", -1, "input device index, -1 for the default device")
	flags.String("source", "portaudio", "capture source: portaudio or tone")
	flags.Int("filter-order", bandsplit.DefaultOrder, "butterworth prototype order")
	flags.String("bands", "bass=20:250,mid=250:4000,treble=4000:20000", "bands as name=low:high, comma separated")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-file", "ringcap.log", "log file, empty to disable")
	flags.StringP("output", "o", "out.wav", "wav file written by record")
	flags.StringP("input", "i", "", "wav file read by split and play")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.GetDefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.File = cfg.LogFile
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "record":
		err = record(ctx, cfg, logger)
	case "split":
		err = split(ctx, cfg, logger)
	case "play":
		err = play(ctx, cfg, logger)
	case "devices":
		err = devices()
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newDevice(cfg *config.Config) audio.Device {
	if cfg.Source == "tone" {
		toneCfg := audio.GetDefaultToneConfig()
		toneCfg.SampleRate = cfg.SampleRate
		toneCfg.FramesPerBuffer = cfg.ChunkSize
		toneCfg.Frequency = cfg.ToneHz
		return audio.NewToneDevice(toneCfg)
	}

	audioCfg := audio.GetDefaultConfig()
	audioCfg.SampleRate = float64(cfg.SampleRate)
	audioCfg.FramesPerBuffer = cfg.ChunkSize
	audioCfg.DeviceIndex = cfg.DeviceIndex
	return audio.NewPortAudioDevice(audioCfg)
}

func record(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	eng, err := engine.New(engine.Config{
		BufferSeconds: cfg.BufferSeconds,
		SampleRate:    cfg.SampleRate,
		ChunkSize:     cfg.ChunkSize,
	}, newDevice(cfg), logger)
	if err != nil {
		return err
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	fmt.Printf("Buffering the last %.0f seconds. Press Enter to save a snapshot, Ctrl-C to stop.\n", cfg.BufferSeconds)

	lines := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- struct{}{}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping...")
			if err := eng.Stop(); err != nil {
				logger.Warn("device did not stop cleanly", zap.Error(err))
			}
			_, err := eng.Export(cfg.Output)
			return err
		case <-lines:
			path := timestamped(cfg.Output, time.Now())
			if _, err := eng.Export(path); err != nil {
				// Capture keeps running; the next request may succeed.
				fmt.Fprintf(os.Stderr, "Snapshot failed: %v\n", err)
			}
		}
	}
}

// timestamped turns out.wav into out-20060102-150405.wav.
func timestamped(path string, t time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + t.Format("20060102-150405") + ext
}

func split(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Input == "" {
		return errors.New("split needs --input")
	}

	pcm, err := wavfile.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Input, err)
	}
	if pcm.Channels > 1 {
		logger.Info("converting to mono", zap.Int("channels", pcm.Channels))
		pcm = wavfile.Downmix(pcm)
	}

	bands, err := cfg.BandSet()
	if err != nil {
		return err
	}

	sig := bandsplit.Signal{Samples: wavfile.ToFloat(pcm.Samples), SampleRate: pcm.SampleRate}
	start := time.Now()
	out, err := bandsplit.Split(ctx, sig, bands, cfg.FilterOrder)
	if err != nil {
		return err
	}
	logger.Info("signal split",
		zap.String("input", cfg.Input),
		zap.Duration("signal", sig.Duration()),
		zap.Int("bands", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)

	base := strings.TrimSuffix(cfg.Input, filepath.Ext(cfg.Input))
	for _, name := range bands.Names() {
		band := out[name]
		path := base + "_" + name + ".wav"
		err := wavfile.WriteFile(path, wavfile.PCM{
			SampleRate: band.SampleRate,
			Channels:   1,
			Samples:    wavfile.FromFloat(band.Samples),
		})
		if err != nil {
			return fmt.Errorf("failed to write band %q: %w", name, err)
		}
		logger.Info("band written",
			zap.String("band", name),
			zap.String("path", path),
			zap.Float64("rms", band.RMS()),
		)
	}
	return nil
}

func play(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Input == "" {
		return errors.New("play needs --input")
	}
	pcm, err := wavfile.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Input, err)
	}

	player := sound.NewPortaudioPlayer(sound.GetDefaultConfig())
	if err := player.Initialize(); err != nil {
		return err
	}
	defer player.Terminate()

	logger.Info("playing", zap.String("input", cfg.Input), zap.Float64("seconds", pcm.Seconds()))
	return player.Play(ctx, pcm)
}

func devices() error {
	list, err := audio.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range list {
		fmt.Printf("%3d  %-40s  %d ch  %.0f Hz\n", d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return nil
}
