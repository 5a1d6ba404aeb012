package buffer

import (
	"iter"
	"slices"
)

// Snapshot is an immutable copy of the buffer taken at one instant.
// The zero value is an empty snapshot.
type Snapshot struct {
	samples []int16
	ends    []int // end offset of each chunk in samples
}

// Len returns the number of chunks.
func (s Snapshot) Len() int { return len(s.ends) }

// Empty reports whether the snapshot holds no chunks.
func (s Snapshot) Empty() bool { return len(s.ends) == 0 }

// TotalSamples returns the number of samples over all chunks.
func (s Snapshot) TotalSamples() int { return len(s.samples) }

// Chunk returns a copy of chunk i.
func (s Snapshot) Chunk(i int) []int16 {
	start := 0
	if i > 0 {
		start = s.ends[i-1]
	}
	return slices.Clone(s.samples[start:s.ends[i]])
}

// Samples returns the chunks concatenated in order as a new slice.
func (s Snapshot) Samples() []int16 {
	return slices.Clone(s.samples)
}

// All yields every sample in order. It can be ranged over any number of times.
func (s Snapshot) All() iter.Seq[int16] {
	return func(yield func(int16) bool) {
		for _, v := range s.samples {
			if !yield(v) {
				return
			}
		}
	}
}

// Equal reports whether both snapshots hold the same chunks.
func (s Snapshot) Equal(o Snapshot) bool {
	return slices.Equal(s.ends, o.ends) && slices.Equal(s.samples, o.samples)
}
