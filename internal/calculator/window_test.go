package calculator

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindows_Aligned(t *testing.T) {
	got := slices.Collect(Windows(t0, at(3*time.Hour), WindowOverrun))

	require.Len(t, got, 3)
	for i, w := range got {
		assert.Equal(t, at(time.Duration(i)*time.Hour), w.Start)
		assert.Equal(t, at(time.Duration(i+1)*time.Hour), w.End)
	}
}

func TestWindows_FirstStartTruncatedToHour(t *testing.T) {
	from := at(30*time.Minute + 45*time.Second + 123*time.Millisecond)
	got := slices.Collect(Windows(from, at(2*time.Hour), WindowOverrun))

	require.Len(t, got, 2)
	assert.Equal(t, t0, got[0].Start)
	assert.Equal(t, at(time.Hour), got[1].Start)
}

func TestWindows_LastWindowOverrunsEnd(t *testing.T) {
	to := at(2*time.Hour + time.Minute)
	got := slices.Collect(Windows(t0, to, WindowOverrun))

	require.Len(t, got, 3)
	assert.Equal(t, at(3*time.Hour), got[2].End)
}

func TestWindows_StrictClampsLastWindow(t *testing.T) {
	to := at(2*time.Hour + time.Minute)
	got := slices.Collect(Windows(t0, to, WindowStrict))

	require.Len(t, got, 3)
	assert.Equal(t, at(2*time.Hour), got[2].Start)
	assert.Equal(t, to, got[2].End)
	assert.Equal(t, at(2*time.Hour), got[1].End)
}

func TestWindows_EmptyPeriod(t *testing.T) {
	assert.Empty(t, slices.Collect(Windows(t0, t0, WindowOverrun)))
	assert.Empty(t, slices.Collect(Windows(at(30*time.Minute), at(30*time.Minute), WindowOverrun)))
	assert.Empty(t, slices.Collect(Windows(at(time.Hour), t0, WindowOverrun)))
}

func TestWindows_HalfHourOffsetZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	from := time.Date(2024, 1, 1, 10, 45, 0, 0, ist)
	got := slices.Collect(Windows(from, from.Add(time.Hour), WindowOverrun))

	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, ist), got[0].Start)
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, ist), got[1].Start)
}

func TestWindows_StopsWhenConsumerBreaks(t *testing.T) {
	n := 0
	for range Windows(t0, at(1000*time.Hour), WindowOverrun) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestWindow_ContainsIsHalfOpen(t *testing.T) {
	w := Window{Start: t0, End: at(time.Hour)}
	assert.True(t, w.Contains(t0))
	assert.True(t, w.Contains(at(59*time.Minute)))
	assert.False(t, w.Contains(at(time.Hour)))
	assert.False(t, w.Contains(at(-time.Nanosecond)))
}

func TestParseWindowStrategy(t *testing.T) {
	for in, want := range map[string]WindowStrategy{
		"":        WindowOverrun,
		"overrun": WindowOverrun,
		"STRICT":  WindowStrict,
	} {
		got, err := ParseWindowStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseWindowStrategy("nearest")
	assert.Error(t, err)

	assert.Equal(t, "strict", WindowStrict.String())
	assert.Equal(t, "overrun", WindowOverrun.String())
}
