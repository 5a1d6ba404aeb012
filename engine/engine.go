package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d1nch8g/ringcap/apperr"
	"github.com/d1nch8g/ringcap/audio"
	"github.com/d1nch8g/ringcap/buffer"
	"github.com/d1nch8g/ringcap/export"
)

// Config holds the capture session parameters.
type Config struct {
	BufferSeconds float64
	SampleRate    int
	ChunkSize     int
}

func GetDefaultConfig() Config {
	return Config{
		BufferSeconds: 30,
		SampleRate:    44100,
		ChunkSize:     1024,
	}
}

// Engine is one capture session: a device feeding a ring buffer, and the
// consumer-side operations on it.
type Engine struct {
	config   Config
	device   audio.Device
	buffer   *buffer.RingBuffer
	exporter *export.Exporter
	logger   *zap.Logger
	session  string

	inflight atomic.Int32
	stopped  atomic.Bool

	mu       sync.Mutex
	started  bool
	done     chan struct{}
	drained  sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
	unwatch  func() bool
}

// New validates config and allocates the buffer. Nothing is started.
func New(config Config, device audio.Device, logger *zap.Logger) (*Engine, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: no capture device", apperr.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	capacity, err := buffer.CapacityFor(config.BufferSeconds, config.SampleRate, config.ChunkSize)
	if err != nil {
		return nil, err
	}
	rb, err := buffer.New(capacity, config.ChunkSize)
	if err != nil {
		return nil, err
	}

	session := uuid.NewString()
	logger = logger.With(zap.String("session", session))

	return &Engine{
		config:   config,
		device:   device,
		buffer:   rb,
		exporter: export.New(config.SampleRate, logger),
		logger:   logger,
		session:  session,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the capture handler and starts the device. Capture runs
// until Stop is called or ctx is done; faults seen on the capture path are
// logged until then, including those raised while stopping.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine is already running")
	}
	if e.stopped.Load() {
		return fmt.Errorf("engine is stopped")
	}

	e.device.Register(e.handle)
	if n, ok := e.device.(audio.OverflowNotifier); ok {
		n.OnOverflow(e.overflow)
	}

	if err := e.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	e.started = true

	e.drained.Add(1)
	go e.drainFaults()
	e.unwatch = context.AfterFunc(ctx, func() { e.Stop() })

	e.logger.Info("capture started",
		zap.Float64("buffer_seconds", e.config.BufferSeconds),
		zap.Int("sample_rate", e.config.SampleRate),
		zap.Int("chunk_size", e.config.ChunkSize),
		zap.Int("capacity_chunks", e.buffer.Capacity()),
	)
	return nil
}

// handle runs on the device's real-time thread.
func (e *Engine) handle(chunk []int16, frames int) audio.Action {
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	if e.stopped.Load() {
		return audio.Stop
	}
	if frames < len(chunk) {
		chunk = chunk[:frames]
	}
	e.buffer.Push(chunk)
	return audio.Continue
}

func (e *Engine) overflow() {
	e.buffer.RecordFault(buffer.Fault{Kind: buffer.FaultInputOverflow})
}

func (e *Engine) drainFaults() {
	defer e.drained.Done()
	for {
		select {
		case f := <-e.buffer.Faults():
			e.logger.Warn("capture fault", zap.Stringer("fault", f))
		case <-e.done:
			for {
				select {
				case f := <-e.buffer.Faults():
					e.logger.Warn("capture fault", zap.Stringer("fault", f))
				default:
					return
				}
			}
		}
	}
}

// Stop ends capture. Once it returns no further chunk reaches the buffer,
// so an export right after it is deterministic. The device is released
// exactly once; later calls return the first result.
func (e *Engine) Stop() error {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		if e.unwatch != nil {
			e.unwatch()
		}
		e.mu.Unlock()

		e.stopped.Store(true)
		for e.inflight.Load() != 0 {
			runtime.Gosched()
		}

		e.stopErr = e.device.Stop()
		close(e.done)
		e.drained.Wait()

		st := e.buffer.Stats()
		e.logger.Info("capture stopped",
			zap.Uint64("pushed", st.Pushed),
			zap.Uint64("evicted", st.Evicted),
			zap.Uint64("faults_dropped", st.FaultsDropped),
			zap.Error(e.stopErr),
		)
	})
	return e.stopErr
}

// Running reports whether capture was started and not yet stopped.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started && !e.stopped.Load()
}

func (e *Engine) Snapshot() buffer.Snapshot { return e.buffer.Snapshot() }

// Export snapshots the buffer and writes it to path.
func (e *Engine) Export(path string) (export.Report, error) {
	return e.exporter.Export(e.buffer.Snapshot(), path)
}

// Reset drops everything captured so far.
func (e *Engine) Reset() { e.buffer.Reset() }

func (e *Engine) Buffer() *buffer.RingBuffer { return e.buffer }

func (e *Engine) SessionID() string { return e.session }
