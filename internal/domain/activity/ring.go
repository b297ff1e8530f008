package activity

import (
	"fmt"
	"sync"
)

// Ring is a bounded, in-memory log of human-readable messages. Messages keep
// their absolute index; old messages fall off the front when capacity is hit
// or when a reader drops them.
type Ring struct {
	mu       sync.Mutex
	capacity int
	first    int64
	messages []string
}

// NewRing returns a ring retaining up to capacity messages.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{capacity: capacity}
}

// Append adds a message, evicting the oldest one when full.
func (r *Ring) Append(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == r.capacity {
		r.messages = r.messages[1:]
		r.first++
	}
	r.messages = append(r.messages, msg)
}

// Info reports the retained window.
func (r *Ring) Info() LogInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return LogInfo{FirstIndex: r.first, Count: len(r.messages)}
}

// Message returns the message with absolute index i.
func (r *Ring) Message(i int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < r.first || i >= r.first+int64(len(r.messages)) {
		return "", fmt.Errorf("%w: %d", ErrMessageOutOfRange, i)
	}
	return r.messages[i-r.first], nil
}

// Drop discards the n oldest messages.
func (r *Ring) Drop(n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 || n > len(r.messages) {
		return fmt.Errorf("%w: drop %d of %d", ErrMessageOutOfRange, n, len(r.messages))
	}
	r.messages = append(r.messages[:0], r.messages[n:]...)
	r.first += int64(n)
	return nil
}
