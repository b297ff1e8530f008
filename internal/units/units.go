// Package units provides time values tagged with the domain they are measured in.
//
// A Time[AudioSample] cannot be added to a Duration[Beat]; the compiler rejects it.
// Conversions between domains need a rate and live with whoever owns the rate
// (see the clock package).
package units

import (
	"cmp"
	"fmt"
	"math"
)

// AudioSample measures time in samples at the graph's sample rate.
type AudioSample struct{}

// Beat measures time in beats at the clock's tempo.
type Beat struct{}

// Second measures wall-clock time.
type Second struct{}

// Domain is the set of unit domains a value may be tagged with.
type Domain interface {
	AudioSample | Beat | Second
}

// Time is an integral position in domain D. Valid positions are non-negative.
type Time[D Domain] struct {
	value int64
}

// NewTime returns the position v, rejecting negative values.
func NewTime[D Domain](v int64) (Time[D], error) {
	if v < 0 {
		return Time[D]{}, fmt.Errorf("%w: %d", ErrNegativeTime, v)
	}
	return Time[D]{value: v}, nil
}

// TimeOf captures a literal position. It panics on a negative literal.
func TimeOf[D Domain](v int64) Time[D] {
	t, err := NewTime[D](v)
	if err != nil {
		panic(err)
	}
	return t
}

// Int64 returns the raw position.
func (t Time[D]) Int64() int64 { return t.value }

// Valid reports whether the position is non-negative.
func (t Time[D]) Valid() bool { return t.value >= 0 }

// Add offsets the position by d. A negative d must not move the position
// below zero; use Offset when that is not known.
func (t Time[D]) Add(d Duration[D]) Time[D] { return Time[D]{value: t.value + d.value} }

// Sub offsets the position backwards by d. The caller must ensure d does not
// exceed t; use Offset with a negated span when that is not known.
func (t Time[D]) Sub(d Duration[D]) Time[D] { return Time[D]{value: t.value - d.value} }

// Offset moves the position by d, rejecting results before zero.
func (t Time[D]) Offset(d Duration[D]) (Time[D], error) {
	return NewTime[D](t.value + d.value)
}

// Since returns the span from earlier to t.
func (t Time[D]) Since(earlier Time[D]) Duration[D] {
	return Duration[D]{value: t.value - earlier.value}
}

// Compare returns -1, 0 or +1.
func (t Time[D]) Compare(o Time[D]) int { return cmp.Compare(t.value, o.value) }

// Before reports whether t is strictly earlier than o.
func (t Time[D]) Before(o Time[D]) bool { return t.value < o.value }

func (t Time[D]) String() string { return fmt.Sprintf("T[%d]", t.value) }

// Duration is an integral span in domain D.
type Duration[D Domain] struct {
	value int64
}

// DurationOf captures a raw span.
func DurationOf[D Domain](v int64) Duration[D] { return Duration[D]{value: v} }

// Int64 returns the raw span.
func (d Duration[D]) Int64() int64 { return d.value }

// IsSettled reports whether the span is non-negative.
func (d Duration[D]) IsSettled() bool { return d.value >= 0 }

// IsZero reports whether the span is empty.
func (d Duration[D]) IsZero() bool { return d.value == 0 }

// Add returns d+o.
func (d Duration[D]) Add(o Duration[D]) Duration[D] { return Duration[D]{value: d.value + o.value} }

// Sub returns d-o.
func (d Duration[D]) Sub(o Duration[D]) Duration[D] { return Duration[D]{value: d.value - o.value} }

// Mod wraps d into [0, period). A non-positive period returns d unchanged.
func (d Duration[D]) Mod(period Duration[D]) Duration[D] {
	if period.value <= 0 {
		return d
	}
	m := d.value % period.value
	if m < 0 {
		m += period.value
	}
	return Duration[D]{value: m}
}

// Compare returns -1, 0 or +1.
func (d Duration[D]) Compare(o Duration[D]) int { return cmp.Compare(d.value, o.value) }

// Continuous widens d to a floating-point span.
func (d Duration[D]) Continuous() ContinuousDuration[D] {
	return ContinuousDuration[D]{value: float64(d.value)}
}

func (d Duration[D]) String() string { return fmt.Sprintf("D[%d]", d.value) }

// ContinuousDuration is a fractional span in domain D.
type ContinuousDuration[D Domain] struct {
	value float64
}

// ContinuousOf captures a raw fractional span.
func ContinuousOf[D Domain](v float64) ContinuousDuration[D] {
	return ContinuousDuration[D]{value: v}
}

// Float64 returns the raw span.
func (c ContinuousDuration[D]) Float64() float64 { return c.value }

// Add returns c+o.
func (c ContinuousDuration[D]) Add(o ContinuousDuration[D]) ContinuousDuration[D] {
	return ContinuousDuration[D]{value: c.value + o.value}
}

// Sub returns c-o.
func (c ContinuousDuration[D]) Sub(o ContinuousDuration[D]) ContinuousDuration[D] {
	return ContinuousDuration[D]{value: c.value - o.value}
}

// Scale multiplies the span by a dimensionless factor.
func (c ContinuousDuration[D]) Scale(f float64) ContinuousDuration[D] {
	return ContinuousDuration[D]{value: c.value * f}
}

// Scale multiplies a dimensionless factor by the span.
func Scale[D Domain](f float64, c ContinuousDuration[D]) ContinuousDuration[D] {
	return ContinuousDuration[D]{value: f * c.value}
}

// Floor truncates toward negative infinity.
func (c ContinuousDuration[D]) Floor() Duration[D] {
	return Duration[D]{value: int64(math.Floor(c.value))}
}

// Ceil rounds toward positive infinity.
func (c ContinuousDuration[D]) Ceil() Duration[D] {
	return Duration[D]{value: int64(math.Ceil(c.value))}
}

// Compare returns -1, 0 or +1.
func (c ContinuousDuration[D]) Compare(o ContinuousDuration[D]) int {
	return cmp.Compare(c.value, o.value)
}

func (c ContinuousDuration[D]) String() string { return fmt.Sprintf("CD[%.2f]", c.value) }

// MaxTime returns the later of a and b.
func MaxTime[D Domain](a, b Time[D]) Time[D] {
	if a.value >= b.value {
		return a
	}
	return b
}

// MinTime returns the earlier of a and b.
func MinTime[D Domain](a, b Time[D]) Time[D] {
	if a.value <= b.value {
		return a
	}
	return b
}
