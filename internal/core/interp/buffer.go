// Package interp stores bounded histories of timestamped samples and answers
// "what was the value at render time T".
package interp

import (
	"math"
	"time"

	"github.com/zeusync/worldmirror/internal/core/vmath"
)

// DefaultCapacity is the number of samples a buffer keeps unless told otherwise.
const DefaultCapacity = 5

// Timestamp is a point in time in milliseconds. The client uses wall-clock
// Unix milliseconds; tests use small integers.
type Timestamp float64

// TimestampOf converts a wall-clock time into a Timestamp, keeping
// sub-millisecond precision.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(float64(t.UnixNano()) / float64(time.Millisecond))
}

// Sub returns the timestamp d earlier than ts.
func (ts Timestamp) Sub(d time.Duration) Timestamp {
	return ts - Timestamp(float64(d)/float64(time.Millisecond))
}

// LerpFunc blends from a towards b by weight. Weights outside [0,1] extrapolate.
type LerpFunc[T any] func(a, b T, weight float64) T

// Sample is one value received at a point in time.
type Sample[T any] struct {
	Value T
	Time  Timestamp
}

// Buffer keeps at most Capacity samples in strictly increasing time order.
// It always holds at least one sample.
type Buffer[T any] struct {
	samples  []Sample[T]
	capacity int
	lerp     LerpFunc[T]
}

// NewBuffer creates a buffer seeded with one sample. A capacity below one
// falls back to DefaultCapacity.
func NewBuffer[T any](initial Sample[T], capacity int, lerp LerpFunc[T]) *Buffer[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	samples := make([]Sample[T], 1, capacity)
	samples[0] = initial
	return &Buffer[T]{
		samples:  samples,
		capacity: capacity,
		lerp:     lerp,
	}
}

// Update appends a sample. Samples not newer than the newest stored sample
// are dropped; it reports whether the sample was kept.
func (b *Buffer[T]) Update(value T, at Timestamp) bool {
	if at <= b.samples[len(b.samples)-1].Time {
		return false
	}
	if len(b.samples) == b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, Sample[T]{Value: value, Time: at})
	return true
}

// Get returns the value at render time t. Negative times are treated as zero.
//
// The pair (A, B) is found by advancing A while the next sample is still
// older than t. Past the newest sample the newest value is returned as-is;
// otherwise the value is interpolated between A and B, extrapolating
// backwards when t precedes the first sample.
func (b *Buffer[T]) Get(t Timestamp) T {
	t = Timestamp(math.Max(0, float64(t)))

	i := 0
	for i+1 < len(b.samples) && b.samples[i+1].Time < t {
		i++
	}
	a := b.samples[i]
	if i+1 == len(b.samples) {
		return a.Value
	}
	next := b.samples[i+1]
	weight := float64(t-a.Time) / float64(next.Time-a.Time)
	return b.lerp(a.Value, next.Value, weight)
}

// Len returns the number of stored samples.
func (b *Buffer[T]) Len() int {
	return len(b.samples)
}

// Capacity returns the maximum number of stored samples.
func (b *Buffer[T]) Capacity() int {
	return b.capacity
}

// Latest returns the newest sample.
func (b *Buffer[T]) Latest() Sample[T] {
	return b.samples[len(b.samples)-1]
}

// Oldest returns the oldest sample still held.
func (b *Buffer[T]) Oldest() Sample[T] {
	return b.samples[0]
}

// Samples returns a copy of the stored samples, oldest first.
func (b *Buffer[T]) Samples() []Sample[T] {
	out := make([]Sample[T], len(b.samples))
	copy(out, b.samples)
	return out
}

// PositionBuffer interpolates entity positions.
type PositionBuffer = Buffer[vmath.Vec2]

// NewPositionBuffer creates a position history seeded with pos at time at.
func NewPositionBuffer(pos vmath.Vec2, at Timestamp, capacity int) *PositionBuffer {
	return NewBuffer(Sample[vmath.Vec2]{Value: pos, Time: at}, capacity, vmath.Lerp)
}
