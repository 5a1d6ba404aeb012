package sound

import (
	"context"

	"github.com/d1nch8g/ringcap/wavfile"
)

// Player defines the interface for audio playback
type Player interface {
	// Initialize initializes the audio playback system
	Initialize() error

	// Terminate terminates the audio playback system
	Terminate()

	// Play blocks until pcm has been played or ctx is done
	Play(ctx context.Context, pcm wavfile.PCM) error
}
