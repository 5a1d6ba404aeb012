// Package export writes buffer snapshots to mono 16-bit WAV files.
package export

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d1nch8g/ringcap/apperr"
	"github.com/d1nch8g/ringcap/buffer"
	"github.com/d1nch8g/ringcap/wavfile"
)

// Report describes one export call.
type Report struct {
	Path     string
	Samples  int
	Duration time.Duration
	// Skipped is set when the snapshot was empty and nothing was written.
	Skipped bool
}

// Seconds returns the exported duration as samples / sampleRate.
func (r Report) Seconds() float64 { return r.Duration.Seconds() }

// Exporter writes snapshots as mono 16-bit WAV at a fixed sample rate.
type Exporter struct {
	sampleRate int
	logger     *zap.Logger
}

// New returns an Exporter for audio captured at sampleRate.
func New(sampleRate int, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{sampleRate: sampleRate, logger: logger}
}

// Export writes snap to path, overwriting any existing file. An empty
// snapshot is a no-op reported through Skipped and a warning. Write failures
// wrap apperr.ErrIO.
func (e *Exporter) Export(snap buffer.Snapshot, path string) (Report, error) {
	if snap.Empty() {
		e.logger.Warn("buffer is empty, nothing to save", zap.String("path", path))
		return Report{Path: path, Skipped: true}, nil
	}

	samples := snap.Samples()
	pcm := wavfile.PCM{SampleRate: e.sampleRate, Channels: 1, Samples: samples}
	if err := wavfile.WriteFile(path, pcm); err != nil {
		e.logger.Error("failed to save snapshot", zap.String("path", path), zap.Error(err))
		return Report{Path: path}, fmt.Errorf("%w: export %s: %w", apperr.ErrIO, path, err)
	}

	seconds := float64(len(samples)) / float64(e.sampleRate)
	report := Report{
		Path:     path,
		Samples:  len(samples),
		Duration: time.Duration(seconds * float64(time.Second)),
	}
	e.logger.Info("snapshot saved",
		zap.String("path", path),
		zap.Int("chunks", snap.Len()),
		zap.Int("samples", report.Samples),
		zap.String("duration", fmt.Sprintf("%.2fs", seconds)),
	)
	return report, nil
}
