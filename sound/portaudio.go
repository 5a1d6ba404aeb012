package sound

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/d1nch8g/ringcap/apperr"
	"github.com/d1nch8g/ringcap/wavfile"
)

type PlayerConfig struct {
	FramesPerBuffer int
}

func GetDefaultConfig() PlayerConfig {
	return PlayerConfig{FramesPerBuffer: 1024}
}

type PortaudioPlayer struct {
	config PlayerConfig
}

var _ Player = (*PortaudioPlayer)(nil)

func NewPortaudioPlayer(config PlayerConfig) *PortaudioPlayer {
	return &PortaudioPlayer{config: config}
}

func (p *PortaudioPlayer) Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: failed to initialize portaudio: %w", apperr.ErrDevice, err)
	}
	return nil
}

func (p *PortaudioPlayer) Terminate() {
	portaudio.Terminate()
}

// Play opens an output stream matching the format of pcm and writes it
// buffer by buffer.
func (p *PortaudioPlayer) Play(ctx context.Context, pcm wavfile.PCM) error {
	if pcm.Channels <= 0 || pcm.SampleRate <= 0 {
		return errors.New("invalid pcm format")
	}

	buf := make([]int16, p.config.FramesPerBuffer*pcm.Channels)
	stream, err := portaudio.OpenDefaultStream(0, pcm.Channels, float64(pcm.SampleRate), p.config.FramesPerBuffer, buf)
	if err != nil {
		return fmt.Errorf("%w: failed to open output stream: %w", apperr.ErrDevice, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("%w: failed to start output stream: %w", apperr.ErrDevice, err)
	}
	defer stream.Stop()

	for rest := pcm.Samples; len(rest) > 0; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := fillBuffer(buf, rest)
		rest = rest[n:]
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
	}
	return nil
}

// fillBuffer copies as much of src as fits into dst and zero-fills the
// remainder. It returns the number of samples consumed.
func fillBuffer(dst, src []int16) int {
	n := copy(dst, src)
	clear(dst[n:])
	return n
}
