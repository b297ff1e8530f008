package units_test

import (
	"testing"

	"github.com/rpggio/nowloop/internal/units"
	"github.com/stretchr/testify/require"
)

func TestTime_AddSubRoundTrip(t *testing.T) {
	times := []int64{0, 1, 511, 48000, 1 << 40}
	durations := []int64{0, 1, 512, 96000, -1, -511}

	for _, tv := range times {
		for _, dv := range durations {
			if tv+dv < 0 {
				continue
			}
			start := units.TimeOf[units.AudioSample](tv)
			d := units.DurationOf[units.AudioSample](dv)
			require.Equal(t, start, start.Add(d).Sub(d))

			beat := units.TimeOf[units.Beat](tv)
			bd := units.DurationOf[units.Beat](dv)
			require.Equal(t, beat, beat.Add(bd).Sub(bd))
		}
	}
}

func TestNewTime_RejectsNegative(t *testing.T) {
	_, err := units.NewTime[units.AudioSample](-1)
	require.ErrorIs(t, err, units.ErrNegativeTime)

	tm, err := units.NewTime[units.AudioSample](42)
	require.NoError(t, err)
	require.Equal(t, int64(42), tm.Int64())
}

func TestTime_OffsetRejectsNegative(t *testing.T) {
	start := units.TimeOf[units.AudioSample](100)

	moved, err := start.Offset(units.DurationOf[units.AudioSample](-100))
	require.NoError(t, err)
	require.Equal(t, int64(0), moved.Int64())

	_, err = start.Offset(units.DurationOf[units.AudioSample](-101))
	require.ErrorIs(t, err, units.ErrNegativeTime)

	moved, err = start.Offset(units.DurationOf[units.AudioSample](50))
	require.NoError(t, err)
	require.Equal(t, start.Add(units.DurationOf[units.AudioSample](50)), moved)
}

func TestTimeOf_PanicsOnNegative(t *testing.T) {
	require.Panics(t, func() { units.TimeOf[units.Beat](-5) })
}

func TestTime_SinceAndCompare(t *testing.T) {
	a := units.TimeOf[units.AudioSample](100)
	b := units.TimeOf[units.AudioSample](250)

	require.Equal(t, int64(150), b.Since(a).Int64())
	require.Equal(t, int64(-150), a.Since(b).Int64())
	require.False(t, a.Since(b).IsSettled())
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
	require.True(t, a.Before(b))
	require.Equal(t, b, units.MaxTime(a, b))
	require.Equal(t, a, units.MinTime(a, b))
}

func TestDuration_Mod(t *testing.T) {
	period := units.DurationOf[units.AudioSample](96000)

	require.Equal(t, int64(0), units.DurationOf[units.AudioSample](96000).Mod(period).Int64())
	require.Equal(t, int64(4000), units.DurationOf[units.AudioSample](100000).Mod(period).Int64())
	require.Equal(t, int64(95999), units.DurationOf[units.AudioSample](-1).Mod(period).Int64())
	require.Equal(t, int64(7), units.DurationOf[units.AudioSample](7).Mod(units.Duration[units.AudioSample]{}).Int64())
}

func TestContinuousDuration_Scale(t *testing.T) {
	half := units.ContinuousOf[units.Beat](0.5)

	require.InDelta(t, 2.0, half.Scale(4).Float64(), 1e-9)
	require.Equal(t, half.Scale(3), units.Scale(3, half))
	require.Equal(t, int64(1), units.ContinuousOf[units.Second](1.2).Floor().Int64())
	require.Equal(t, int64(2), units.ContinuousOf[units.Second](1.2).Ceil().Int64())
	require.Equal(t, -1, half.Compare(units.ContinuousOf[units.Beat](1)))
}

func TestStrings(t *testing.T) {
	require.Equal(t, "T[5]", units.TimeOf[units.AudioSample](5).String())
	require.Equal(t, "D[-3]", units.DurationOf[units.Beat](-3).String())
	require.Equal(t, "CD[1.50]", units.ContinuousOf[units.Second](1.5).String())
}
