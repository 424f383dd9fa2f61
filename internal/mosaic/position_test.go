package mosaic

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/mosaic/internal/models"
)

func testBounds() models.TimelineBounds {
	return models.TimelineBounds{
		Oldest: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Newest: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPositionMapperEndpointsExact(t *testing.T) {
	m := NewPositionMapper(testBounds())
	require.True(t, m.Enabled())
	require.True(t, m.ToTimestamp(0).Equal(testBounds().Newest))
	require.True(t, m.ToTimestamp(1).Equal(testBounds().Oldest))
	require.Equal(t, 0.0, m.ToRatio(testBounds().Newest))
	require.Equal(t, 1.0, m.ToRatio(testBounds().Oldest))
}

func TestPositionMapperHalfwayMatchesFormula(t *testing.T) {
	b := testBounds()
	m := NewPositionMapper(b)

	np := (math.Exp(1.5) - 1) / (math.Exp(3) - 1)
	span := b.Newest.Sub(b.Oldest)
	want := b.Newest.Add(-time.Duration(np * float64(span)))

	got := m.ToTimestamp(0.5)
	require.WithinDuration(t, want, got, time.Millisecond)
	require.Equal(t, 2016, got.Year())
	require.Equal(t, time.May, got.Month())
}

func TestPositionMapperRoundTrip(t *testing.T) {
	m := NewPositionMapper(testBounds())

	for i := 0; i <= 100; i++ {
		r := float64(i) / 100
		require.InDelta(t, r, m.ToRatio(m.ToTimestamp(r)), 1e-9, "ratio %v", r)
	}

	b := testBounds()
	for ts := b.Oldest; !ts.After(b.Newest); ts = ts.AddDate(0, 7, 3) {
		require.WithinDuration(t, ts, m.ToTimestamp(m.ToRatio(ts)), time.Millisecond)
	}
}

func TestPositionMapperIsMonotonic(t *testing.T) {
	m := NewPositionMapper(testBounds())
	prev := m.ToTimestamp(0)
	for i := 1; i <= 50; i++ {
		ts := m.ToTimestamp(float64(i) / 50)
		require.True(t, ts.Before(prev))
		prev = ts
	}
	// Recent half of the scrubber covers less than half of the range.
	mid := m.ToTimestamp(0.5)
	require.Less(t, testBounds().Newest.Sub(mid), mid.Sub(testBounds().Oldest))
}

func TestPositionMapperClampsInput(t *testing.T) {
	m := NewPositionMapper(testBounds())
	require.True(t, m.ToTimestamp(-3).Equal(testBounds().Newest))
	require.True(t, m.ToTimestamp(7).Equal(testBounds().Oldest))
	require.Equal(t, 0.0, m.ToRatio(testBounds().Newest.AddDate(1, 0, 0)))
	require.Equal(t, 1.0, m.ToRatio(testBounds().Oldest.AddDate(-1, 0, 0)))
}

func TestPositionMapperDegenerate(t *testing.T) {
	ts := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]models.TimelineBounds{
		"equal":    {Oldest: ts, Newest: ts},
		"inverted": {Oldest: ts, Newest: ts.Add(-time.Hour)},
		"unknown":  {},
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			m := NewPositionMapper(b)
			require.False(t, m.Enabled())
			require.True(t, m.ToTimestamp(0.7).Equal(b.Newest))
			require.Equal(t, 0.0, m.ToRatio(ts))
		})
	}

	var nilMapper *PositionMapper
	require.False(t, nilMapper.Enabled())
}

func TestPositionMapperCenturiesWideBounds(t *testing.T) {
	b := models.TimelineBounds{
		Oldest: time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC),
		Newest: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	m := NewPositionMapper(b)
	require.True(t, m.Enabled())

	require.True(t, m.ToTimestamp(1).Equal(b.Oldest))
	require.Less(t, m.ToTimestamp(0.999).Year(), 1605)

	in1700 := time.Date(1700, 6, 1, 0, 0, 0, 0, time.UTC)
	require.Less(t, m.ToRatio(in1700), 1.0)
	require.WithinDuration(t, in1700, m.ToTimestamp(m.ToRatio(in1700)), time.Millisecond)

	for ts := b.Oldest; !ts.After(b.Newest); ts = ts.AddDate(7, 1, 3) {
		require.WithinDuration(t, ts, m.ToTimestamp(m.ToRatio(ts)), time.Millisecond, "ts %s", ts)
	}
}
