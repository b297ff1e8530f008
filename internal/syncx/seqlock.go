// Package syncx holds the lock-free hand-off used between the audio thread and
// control goroutines.
package syncx

import (
	"math"
	"runtime"
	"sync/atomic"
)

// SeqLock guards a group of Word values written by a single writer.
//
// The writer never waits. Readers retry until they observe a consistent group.
type SeqLock struct {
	seq atomic.Uint64
}

// Write runs fn as one published update. Only one goroutine may write.
func (s *SeqLock) Write(fn func()) {
	s.seq.Add(1)
	fn()
	s.seq.Add(1)
}

// Read runs fn until it observes a group no writer touched meanwhile.
func (s *SeqLock) Read(fn func()) {
	for {
		before := s.seq.Load()
		if before&1 == 1 {
			runtime.Gosched()
			continue
		}
		fn()
		if s.seq.Load() == before {
			return
		}
	}
}

// Word is a 64-bit cell read and written atomically.
type Word struct {
	v atomic.Uint64
}

// SetInt stores v.
func (w *Word) SetInt(v int64) { w.v.Store(uint64(v)) }

// Int loads the value stored by SetInt.
func (w *Word) Int() int64 { return int64(w.v.Load()) }

// SetFloat stores v as its IEEE 754 bits.
func (w *Word) SetFloat(v float64) { w.v.Store(math.Float64bits(v)) }

// Float loads the value stored by SetFloat.
func (w *Word) Float() float64 { return math.Float64frombits(w.v.Load()) }

// SetBool stores v as 0 or 1.
func (w *Word) SetBool(v bool) { w.v.Store(boolBits(v)) }

// Bool loads the value stored by SetBool.
func (w *Word) Bool() bool { return w.v.Load() != 0 }

func boolBits(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// Float is an atomically accessed float64.
type Float struct {
	v atomic.Uint64
}

// NewFloat returns a Float holding v.
func NewFloat(v float64) *Float {
	f := &Float{}
	f.Store(v)
	return f
}

// Store sets the value.
func (f *Float) Store(v float64) { f.v.Store(math.Float64bits(v)) }

// Load returns the value.
func (f *Float) Load() float64 { return math.Float64frombits(f.v.Load()) }
