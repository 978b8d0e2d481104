package transport

import "sync"

// Inbox is a bounded frame queue between receiver goroutines and the game
// thread. When full, the oldest frame is dropped: a newer snapshot always
// supersedes an older one.
type Inbox struct {
	mu       sync.Mutex
	frames   []Frame
	capacity int
	dropped  uint64
}

// NewInbox creates an inbox holding at most capacity frames.
func NewInbox(capacity int) *Inbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Inbox{
		frames:   make([]Frame, 0, capacity),
		capacity: capacity,
	}
}

// Push enqueues f. It satisfies Deliver.
func (in *Inbox) Push(f Frame) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.frames) == in.capacity {
		copy(in.frames, in.frames[1:])
		in.frames = in.frames[:len(in.frames)-1]
		in.dropped++
	}
	in.frames = append(in.frames, f)
}

// Drain removes and returns every queued frame in arrival order.
func (in *Inbox) Drain() []Frame {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.frames) == 0 {
		return nil
	}
	out := in.frames
	in.frames = make([]Frame, 0, in.capacity)
	return out
}

// Len returns the number of queued frames.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.frames)
}

// Dropped returns how many frames were discarded because the inbox was full.
func (in *Inbox) Dropped() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dropped
}
