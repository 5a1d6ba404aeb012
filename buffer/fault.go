package buffer

import "fmt"

// FaultKind identifies a problem observed on the real-time path.
type FaultKind int

const (
	FaultEmptyChunk FaultKind = iota + 1
	FaultOversizedChunk
	FaultInputOverflow
)

func (k FaultKind) String() string {
	switch k {
	case FaultEmptyChunk:
		return "empty chunk"
	case FaultOversizedChunk:
		return "oversized chunk"
	case FaultInputOverflow:
		return "input overflow"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

// Fault is a value type so queuing it never allocates.
type Fault struct {
	Kind FaultKind
	Got  int
	Want int
}

func (f Fault) String() string {
	if f.Got == 0 && f.Want == 0 {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s (got %d, want %d)", f.Kind, f.Got, f.Want)
}

// RecordFault queues f for the consumer side without blocking. When the
// queue is full the fault is only counted.
func (rb *RingBuffer) RecordFault(f Fault) {
	select {
	case rb.faults <- f:
	default:
		rb.faultsDropped.Add(1)
	}
}

// Faults delivers faults recorded on the real-time path.
func (rb *RingBuffer) Faults() <-chan Fault { return rb.faults }
