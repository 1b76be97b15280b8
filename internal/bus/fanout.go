// Package bus provides a small fan-out primitive used to publish
// interaction state snapshots to observers. Publishing never blocks: a
// slow subscriber drops snapshots rather than stalling the event loop,
// which is safe because every snapshot is a complete state (not a delta).
package bus

import "sync"

// Fanout broadcasts values from Publish to N subscriber channels.
// If a subscriber channel is full the value is dropped for that
// subscriber only.
type Fanout[T any] struct {
	mu      sync.RWMutex
	outputs []chan T
	bufSize int
	closed  bool

	// OnDrop is called when a value is dropped for a subscriber.
	// subscriberIdx is the 0-based index of the slow consumer.
	OnDrop func(subscriberIdx int)
}

// New creates a Fanout with the given buffer size for subscriber channels.
func New[T any](outputBufferSize int) *Fanout[T] {
	if outputBufferSize <= 0 {
		outputBufferSize = 16
	}
	return &Fanout[T]{bufSize: outputBufferSize}
}

// Subscribe creates and returns a new subscriber channel. The channel is
// closed by Close.
func (f *Fanout[T]) Subscribe() <-chan T {
	ch := make(chan T, f.bufSize)
	f.mu.Lock()
	if f.closed {
		close(ch)
	} else {
		f.outputs = append(f.outputs, ch)
	}
	f.mu.Unlock()
	return ch
}

// Publish delivers v to every subscriber, dropping per-subscriber on a
// full channel. No-op after Close.
func (f *Fanout[T]) Publish(v T) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	for i, ch := range f.outputs {
		select {
		case ch <- v:
		default:
			if f.OnDrop != nil {
				f.OnDrop(i)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (f *Fanout[T]) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.outputs)
}

// Close closes all subscriber channels. Publish becomes a no-op.
func (f *Fanout[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.outputs {
		close(ch)
	}
	f.outputs = nil
}
