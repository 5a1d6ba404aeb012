// Package buffer holds the bounded recent-history store that the capture
// callback feeds and the consumer side snapshots.
package buffer

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/d1nch8g/ringcap/apperr"
)

// ErrInvalidCapacity is returned when a buffer would hold no chunks.
var ErrInvalidCapacity = errors.New("buffer: invalid capacity")

const faultQueueSize = 64

// RingBuffer is a fixed-capacity FIFO of audio chunks. When full, a push
// evicts the oldest chunk. It is safe for one producer and any number of
// concurrent Snapshot callers.
type RingBuffer struct {
	mu       sync.Mutex
	storage  []int16 // capacity * chunkSize, slot-major
	lengths  []int   // valid samples per slot
	head     int     // next slot to write
	size     int
	capacity int
	chunk    int

	faults        chan Fault
	pushed        atomic.Uint64
	evicted       atomic.Uint64
	faultsDropped atomic.Uint64
}

// Stats are running counters since construction.
type Stats struct {
	Pushed        uint64
	Evicted       uint64
	FaultsDropped uint64
}

// CapacityFor returns the number of chunks needed to hold seconds of audio,
// rounded up to a whole chunk.
func CapacityFor(seconds float64, sampleRate, chunkSize int) (int, error) {
	if seconds <= 0 || sampleRate <= 0 || chunkSize <= 0 {
		return 0, fmt.Errorf("%w: %w: seconds=%v sampleRate=%d chunkSize=%d",
			apperr.ErrConfiguration, ErrInvalidCapacity, seconds, sampleRate, chunkSize)
	}
	return int(math.Ceil(seconds * float64(sampleRate) / float64(chunkSize))), nil
}

// New allocates a buffer of capacityChunks slots of chunkSize samples each.
// No allocation happens after this call.
func New(capacityChunks, chunkSize int) (*RingBuffer, error) {
	if capacityChunks < 1 || chunkSize < 1 {
		return nil, fmt.Errorf("%w: %w: capacity=%d chunkSize=%d",
			apperr.ErrConfiguration, ErrInvalidCapacity, capacityChunks, chunkSize)
	}
	return &RingBuffer{
		storage:  make([]int16, capacityChunks*chunkSize),
		lengths:  make([]int, capacityChunks),
		capacity: capacityChunks,
		chunk:    chunkSize,
		faults:   make(chan Fault, faultQueueSize),
	}, nil
}

// Push appends a chunk, overwriting the oldest one when the buffer is full.
// It never blocks beyond one chunk copy, never allocates and never fails;
// malformed chunks are reported through Faults.
func (rb *RingBuffer) Push(chunk []int16) {
	n := len(chunk)
	if n == 0 {
		rb.RecordFault(Fault{Kind: FaultEmptyChunk, Want: rb.chunk})
		return
	}
	if n > rb.chunk {
		rb.RecordFault(Fault{Kind: FaultOversizedChunk, Got: n, Want: rb.chunk})
		n = rb.chunk
	}

	rb.mu.Lock()
	off := rb.head * rb.chunk
	copy(rb.storage[off:off+n], chunk[:n])
	rb.lengths[rb.head] = n
	rb.head++
	if rb.head == rb.capacity {
		rb.head = 0
	}
	evicted := rb.size == rb.capacity
	if !evicted {
		rb.size++
	}
	rb.mu.Unlock()

	rb.pushed.Add(1)
	if evicted {
		rb.evicted.Add(1)
	}
}

// Snapshot copies the current contents in arrival order. Every push that
// returned before the copy began is included and none that started after.
func (rb *RingBuffer) Snapshot() Snapshot {
	// Size the copy outside the lock; append covers pushes that land in between.
	want := rb.Len()
	if want < rb.capacity {
		want++
	}
	samples := make([]int16, 0, want*rb.chunk)
	ends := make([]int, 0, want)

	rb.mu.Lock()
	slot := rb.head - rb.size
	if slot < 0 {
		slot += rb.capacity
	}
	for i := 0; i < rb.size; i++ {
		off := slot * rb.chunk
		samples = append(samples, rb.storage[off:off+rb.lengths[slot]]...)
		ends = append(ends, len(samples))
		slot++
		if slot == rb.capacity {
			slot = 0
		}
	}
	rb.mu.Unlock()

	if len(ends) == 0 {
		return Snapshot{}
	}
	return Snapshot{samples: samples, ends: ends}
}

// Reset empties the buffer for reuse. Counters are kept.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.size = 0
	clear(rb.lengths)
}

// Len returns the number of chunks currently held.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Capacity returns the maximum number of chunks held.
func (rb *RingBuffer) Capacity() int { return rb.capacity }

// ChunkSize returns the number of samples per slot.
func (rb *RingBuffer) ChunkSize() int { return rb.chunk }

// Stats returns a snapshot of the counters.
func (rb *RingBuffer) Stats() Stats {
	return Stats{
		Pushed:        rb.pushed.Load(),
		Evicted:       rb.evicted.Load(),
		FaultsDropped: rb.faultsDropped.Load(),
	}
}
