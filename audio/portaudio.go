package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/d1nch8g/ringcap/apperr"
)

type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	// DeviceIndex selects an entry of ListDevices. Negative means the
	// default input device.
	DeviceIndex int
}

func GetDefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		DeviceIndex:     -1,
	}
}

// PortAudioDevice captures mono 16-bit audio in callback mode.
type PortAudioDevice struct {
	config   Config
	handler  Handler
	overflow func()

	mu       sync.Mutex
	stream   *portaudio.Stream
	halted   atomic.Bool
	stopped  bool
	stopOnce sync.Once
	stopErr  error
}

var (
	_ Device           = (*PortAudioDevice)(nil)
	_ OverflowNotifier = (*PortAudioDevice)(nil)
)

func NewPortAudioDevice(config Config) *PortAudioDevice {
	return &PortAudioDevice{config: config}
}

func (d *PortAudioDevice) Register(h Handler) { d.handler = h }

func (d *PortAudioDevice) OnOverflow(fn func()) { d.overflow = fn }

func (d *PortAudioDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handler == nil {
		return errors.New("no handler registered")
	}
	if d.stopped {
		return errors.New("device already stopped")
	}
	if d.stream != nil {
		return errors.New("stream already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: failed to initialize portaudio: %w", apperr.ErrDevice, err)
	}

	stream, err := d.open()
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: failed to start stream: %w", apperr.ErrDevice, err)
	}

	d.stream = stream
	return nil
}

func (d *PortAudioDevice) open() (*portaudio.Stream, error) {
	info, err := inputDevice(d.config.DeviceIndex)
	if err != nil {
		return nil, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = 1
	params.SampleRate = d.config.SampleRate
	params.FramesPerBuffer = d.config.FramesPerBuffer

	stream, err := portaudio.OpenStream(params, d.process)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open stream on %q: %w", apperr.ErrDevice, info.Name, err)
	}
	return stream, nil
}

// process is the portaudio callback.
func (d *PortAudioDevice) process(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if d.halted.Load() {
		return
	}
	if flags&portaudio.InputOverflow != 0 && d.overflow != nil {
		d.overflow()
	}
	if d.handler(in, len(in)) == Stop {
		d.halted.Store(true)
	}
}

// Stop waits for the running callback to return, closes the stream and
// terminates portaudio. Only the first call does any work.
func (d *PortAudioDevice) Stop() error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		d.halted.Store(true)
		d.stopped = true
		if d.stream == nil {
			return
		}

		var errs []error
		if err := d.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop stream: %w", err))
		}
		if err := d.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
		}
		if err := portaudio.Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate portaudio: %w", err))
		}
		d.stream = nil
		if len(errs) > 0 {
			d.stopErr = fmt.Errorf("%w: %w", apperr.ErrDevice, errors.Join(errs...))
		}
	})
	return d.stopErr
}

func inputDevice(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %w", apperr.ErrConfiguration, err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enumerate devices: %w", apperr.ErrDevice, err)
	}
	if index >= len(devices) || devices[index].MaxInputChannels < 1 {
		return nil, fmt.Errorf("%w: no input device at index %d", apperr.ErrConfiguration, index)
	}
	return devices[index], nil
}

// DeviceInfo describes an input device for selection by index.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// ListDevices returns the devices that can capture audio.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize portaudio: %w", apperr.ErrDevice, err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enumerate devices: %w", apperr.ErrDevice, err)
	}

	var out []DeviceInfo
	for i, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, DeviceInfo{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		})
	}
	return out, nil
}
