package models

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2019, 7, 4, 13, 5, 9, 0, time.UTC)
	cases := []string{
		"2019-07-04T13:05:09Z",
		"2019-07-04T15:05:09+02:00",
		"2019-07-04 13:05:09",
		"2019:07:04 13:05:09",
	}
	for _, raw := range cases {
		got, ok := ParseTimestamp(raw)
		require.True(t, ok, raw)
		require.True(t, want.Equal(got), "%s parsed as %s", raw, got)
		require.Equal(t, time.UTC, got.Location())
	}

	_, ok := ParseTimestamp("yesterday-ish")
	require.False(t, ok)
	_, ok = ParseTimestamp("  ")
	require.False(t, ok)
}

func TestWireItemResolveFallsBackToNestedTimestamp(t *testing.T) {
	direct := WireItem{Key: "a", TakenAt: "2020-01-02T03:04:05Z", Metadata: &WireMetadata{OriginalTakenAt: "2001-01-01T00:00:00Z"}}
	require.Equal(t, 2020, direct.Resolve().Timestamp.Year())

	nested := WireItem{Key: "b", TakenAt: "garbage", Metadata: &WireMetadata{OriginalTakenAt: "2001:02:03 04:05:06"}}
	require.Equal(t, time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC), nested.Resolve().Timestamp)

	none := WireItem{Key: " c ", ContentRef: " ref "}
	resolved := none.Resolve()
	require.False(t, resolved.HasTimestamp())
	require.Equal(t, "c", resolved.Key)
	require.Equal(t, "ref", resolved.ContentRef)
}

func TestCompareNewestFirstBreaksTiesByKey(t *testing.T) {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []ChronoItem{
		{Key: "a", Timestamp: ts},
		{Key: "z", Timestamp: ts.Add(-time.Hour)},
		{Key: "c", Timestamp: ts},
		{Key: "n", Timestamp: ts.Add(time.Hour)},
	}
	slices.SortStableFunc(items, CompareNewestFirst)

	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	require.Equal(t, []string{"n", "c", "a", "z"}, keys)
}

func TestNavRequestValidate(t *testing.T) {
	require.NoError(t, NavRequest{Selector: SelectorLast}.Validate())
	require.NoError(t, NavRequest{Selector: SelectorNext, Key: "k"}.Validate())

	err := NavRequest{Selector: SelectorPrevious}.Validate()
	require.Error(t, err)

	err = NavRequest{Selector: "sideways"}.Validate()
	require.True(t, errors.Is(err, ErrInvalidSelector))
}

func TestTimelineBounds(t *testing.T) {
	oldest := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	require.False(t, TimelineBounds{}.Valid())
	require.False(t, TimelineBounds{Oldest: newest, Newest: newest}.Valid())

	b := TimelineBounds{Oldest: oldest, Newest: newest}
	require.True(t, b.Valid())
	require.Equal(t, newest.Sub(oldest), b.Span())
	require.True(t, b.Contains(oldest))
	require.False(t, b.Contains(newest.Add(time.Second)))
}
