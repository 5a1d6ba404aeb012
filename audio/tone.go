package audio

import (
	"errors"
	"math"
	"sync"
	"time"
)

type ToneConfig struct {
	SampleRate      int
	FramesPerBuffer int
	Frequency       float64
	Amplitude       float64 // 0..1 of full scale
	// Realtime paces chunks at the sample rate. Otherwise they are
	// delivered back to back.
	Realtime bool
	// MaxChunks ends delivery after that many chunks; 0 runs until Stop.
	MaxChunks int
}

func GetDefaultToneConfig() ToneConfig {
	return ToneConfig{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		Frequency:       440,
		Amplitude:       0.5,
		Realtime:        true,
	}
}

// ToneDevice is a synthetic sine source with the same contract as a
// hardware device.
type ToneDevice struct {
	config  ToneConfig
	handler Handler

	mu       sync.Mutex
	started  bool
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var _ Device = (*ToneDevice)(nil)

func NewToneDevice(config ToneConfig) *ToneDevice {
	return &ToneDevice{
		config: config,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (d *ToneDevice) Register(h Handler) { d.handler = h }

func (d *ToneDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handler == nil {
		return errors.New("no handler registered")
	}
	if d.started {
		return errors.New("device already started")
	}
	if d.config.SampleRate <= 0 || d.config.FramesPerBuffer <= 0 {
		return errors.New("invalid tone configuration")
	}
	select {
	case <-d.quit:
		return errors.New("device already stopped")
	default:
	}

	d.started = true
	go d.run()
	return nil
}

func (d *ToneDevice) run() {
	defer close(d.done)

	chunk := make([]int16, d.config.FramesPerBuffer)
	step := 2 * math.Pi * d.config.Frequency / float64(d.config.SampleRate)
	amp := d.config.Amplitude * math.MaxInt16
	phase := 0.0

	var tick <-chan time.Time
	if d.config.Realtime {
		period := time.Duration(float64(time.Second) * float64(len(chunk)) / float64(d.config.SampleRate))
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; d.config.MaxChunks == 0 || n < d.config.MaxChunks; n++ {
		if tick != nil {
			select {
			case <-d.quit:
				return
			case <-tick:
			}
		} else {
			select {
			case <-d.quit:
				return
			default:
			}
		}

		for i := range chunk {
			chunk[i] = int16(amp * math.Sin(phase))
			phase += step
		}
		phase = math.Mod(phase, 2*math.Pi)

		if d.handler(chunk, len(chunk)) == Stop {
			return
		}
	}
}

// Done is closed once the device delivers no more chunks.
func (d *ToneDevice) Done() <-chan struct{} { return d.done }

func (d *ToneDevice) Stop() error {
	d.stopOnce.Do(func() {
		close(d.quit)
		d.mu.Lock()
		started := d.started
		d.mu.Unlock()
		if started {
			<-d.done
		}
	})
	return nil
}
