// Package signal holds the signal statistics the DSP layer reports for inputs,
// tracks and the graph output. Nothing here computes audio; values are stored
// as reported and read back by control queries.
package signal

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrNonFinite indicates a NaN or infinite reported value.
var ErrNonFinite = errors.New("non-finite signal value")

// DefaultCapacity is the number of values a meter retains.
const DefaultCapacity = 200

// Info summarizes the retained window.
type Info struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Histogram keeps a bounded window of values with running min, max and mean.
// It is not safe for concurrent use; Meter adds locking.
type Histogram struct {
	values []float64
	next   int
	full   bool
	sum    float64
}

// NewHistogram allocates a window of the given capacity.
func NewHistogram(capacity int) *Histogram {
	if capacity < 1 {
		capacity = 1
	}
	return &Histogram{values: make([]float64, capacity)}
}

// Add records a value, evicting the oldest when the window is full.
// NaN and infinite values are dropped so the running sum stays finite.
func (h *Histogram) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if h.full {
		h.sum -= h.values[h.next]
	}
	h.values[h.next] = v
	h.sum += v
	h.next++
	if h.next == len(h.values) {
		h.next = 0
		h.full = true
	}
}

// Len returns the number of retained values.
func (h *Histogram) Len() int {
	if h.full {
		return len(h.values)
	}
	return h.next
}

// Info returns min, max and mean of the retained values. An empty window
// reports zeros.
func (h *Histogram) Info() Info {
	n := h.Len()
	if n == 0 {
		return Info{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		v := h.values[i]
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return Info{Min: lo, Max: hi, Avg: h.sum / float64(n)}
}

// Meter is a histogram plus the latest frequency bins for one signal point.
type Meter struct {
	mu          sync.Mutex
	hist        *Histogram
	frequencies []float64
}

// NewMeter returns a meter retaining capacity values.
func NewMeter(capacity int) *Meter {
	return &Meter{hist: NewHistogram(capacity)}
}

// Record adds reported sample values. A batch holding a NaN or infinite
// value is rejected whole.
func (m *Meter) Record(values ...float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %d is %v", ErrNonFinite, i, v)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.hist.Add(v)
	}
	return nil
}

// Info returns the current summary.
func (m *Meter) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.Info()
}

// SetFrequencies replaces the latest FFT bins.
func (m *Meter) SetFrequencies(bins []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frequencies = append(m.frequencies[:0], bins...)
}

// Frequencies copies the latest FFT bins.
func (m *Meter) Frequencies() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.frequencies))
	copy(out, m.frequencies)
	return out
}
