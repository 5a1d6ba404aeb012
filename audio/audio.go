package audio

// Action tells a device whether to keep delivering chunks.
type Action int

const (
	Continue Action = iota
	Stop
)

// Handler receives one chunk of mono samples per device period. It runs on
// the device's real-time thread: it must return quickly, must not allocate
// or block, and must not keep chunk after returning.
type Handler func(chunk []int16, frames int) Action

// Device drives a registered Handler with captured audio.
type Device interface {
	// Register sets the handler. It must be called before Start.
	Register(h Handler)

	// Start opens the underlying stream and begins invoking the handler.
	Start() error

	// Stop halts delivery and releases the stream. No handler call is in
	// flight once it returns. Calling it again is a no-op.
	Stop() error
}

// OverflowNotifier is implemented by devices that can tell when the driver
// dropped input because a period was not consumed in time. The callback runs
// on the real-time thread.
type OverflowNotifier interface {
	OnOverflow(fn func())
}
