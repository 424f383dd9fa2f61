package mosaic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/testutil"
)

var seriesNewest = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func seriesNavigator(count int) *testutil.Navigator {
	return testutil.NewNavigator(testutil.Series(count, seriesNewest, time.Hour)...)
}

func TestWalkOlderAndNewer(t *testing.T) {
	ctx := context.Background()
	w := NewWalker(seriesNavigator(20), WalkerOptions{})

	older, err := w.Walk(ctx, models.DirectionOlder, "item-0010", 4)
	require.NoError(t, err)
	require.Equal(t, []string{"item-0009", "item-0008", "item-0007", "item-0006"}, keysOf(older))

	newer, err := w.Walk(ctx, models.DirectionNewer, "item-0010", 3)
	require.NoError(t, err)
	require.Equal(t, []string{"item-0011", "item-0012", "item-0013"}, keysOf(newer))
}

func TestWalkStopsAtEndOfData(t *testing.T) {
	nav := seriesNavigator(5)
	w := NewWalker(nav, WalkerOptions{})

	older, err := w.Walk(context.Background(), models.DirectionOlder, "item-0002", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"item-0001", "item-0000"}, keysOf(older))
	// Two steps plus the echo of item-0000.
	require.Equal(t, 3, nav.Calls())

	none, err := w.Walk(context.Background(), models.DirectionNewer, "item-0004", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestWalkReturnsPartialBatchOnFailure(t *testing.T) {
	nav := seriesNavigator(20)
	nav.FailAfter(3, nil)
	w := NewWalker(nav, WalkerOptions{})

	older, err := w.Walk(context.Background(), models.DirectionOlder, "item-0015", 10)
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Equal(t, []string{"item-0014", "item-0013", "item-0012"}, keysOf(older))
}

func TestWalkSkipsUntimedItems(t *testing.T) {
	nav := seriesNavigator(6)
	nav.Add(models.WireItem{Key: "untimed-a"}, seriesNewest.Add(-150*time.Minute))
	nav.Add(models.WireItem{Key: "nested", Metadata: &models.WireMetadata{OriginalTakenAt: "2024:02:29 21:15:00"}}, seriesNewest.Add(-165*time.Minute))
	w := NewWalker(nav, WalkerOptions{})

	older, err := w.Walk(context.Background(), models.DirectionOlder, "item-0003", 10)
	require.NoError(t, err)
	require.NotContains(t, keysOf(older), "untimed-a")
	require.Equal(t, []string{"nested", "item-0002", "item-0001", "item-0000"}, keysOf(older))
	require.Equal(t, time.Date(2024, 2, 29, 21, 15, 0, 0, time.UTC), older[0].Timestamp)
}

func TestWalkGivesUpOnLongUntimedRuns(t *testing.T) {
	nav := seriesNavigator(2)
	for i, key := range []string{"u1", "u2", "u3"} {
		nav.Add(models.WireItem{Key: key}, seriesNewest.Add(-time.Duration(10+i)*time.Minute))
	}
	w := NewWalker(nav, WalkerOptions{MaxUntimedSkip: 2})

	older, err := w.Walk(context.Background(), models.DirectionOlder, "item-0001", 5)
	require.ErrorIs(t, err, ErrUntimedRun)
	require.Empty(t, older)
}

func TestWalkInvertedBackend(t *testing.T) {
	nav := seriesNavigator(10)
	nav.SetInverted(true)
	w := NewWalker(nav, WalkerOptions{InvertDirection: true})

	older, err := w.Walk(context.Background(), models.DirectionOlder, "item-0005", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"item-0004", "item-0003"}, keysOf(older))
}

func TestWalkHonorsTimeout(t *testing.T) {
	nav := seriesNavigator(10)
	nav.SetLatency(20 * time.Millisecond)
	w := NewWalker(nav, WalkerOptions{Timeout: 70 * time.Millisecond})

	older, err := w.Walk(context.Background(), models.DirectionOlder, "item-0009", 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotEmpty(t, older)
	require.Less(t, len(older), 5)
}

func TestLocateAndWalkAround(t *testing.T) {
	w := NewWalker(seriesNavigator(50), WalkerOptions{})
	target := seriesNewest.Add(-20*time.Hour - 30*time.Minute)

	items, err := w.LocateAndWalkAround(context.Background(), target, 9)
	require.NoError(t, err)
	require.Len(t, items, 9)
	require.NoError(t, validateWindow("check", items))

	// Start is item-0029 (first at/after target): 4 older, 4 newer.
	require.Equal(t, "item-0033", items[0].Key)
	require.Equal(t, "item-0025", items[8].Key)
}

func TestLocateFallsBackToLastBefore(t *testing.T) {
	w := NewWalker(seriesNavigator(10), WalkerOptions{})

	items, err := w.LocateAndWalkAround(context.Background(), seriesNewest.Add(time.Hour), 4)
	require.NoError(t, err)
	require.Equal(t, []string{"item-0009", "item-0008", "item-0007"}, keysOf(items))
}

func TestLocateZeroTargetStartsAtNewest(t *testing.T) {
	w := NewWalker(seriesNavigator(10), WalkerOptions{})

	items, err := w.LocateAndWalkAround(context.Background(), time.Time{}, 6)
	require.NoError(t, err)
	require.Equal(t, "item-0009", items[0].Key)
	require.Len(t, items, 4)
}

func TestLocateAndWalkAroundEmptyDataset(t *testing.T) {
	w := NewWalker(testutil.NewNavigator(), WalkerOptions{})

	items, err := w.LocateAndWalkAround(context.Background(), seriesNewest, 10)
	require.NoError(t, err)
	require.Empty(t, items)

	win := NewWindow()
	require.NoError(t, win.Reset(items))
	require.Zero(t, win.Len())
}

func TestLocateAndWalkAroundKeepsPartialOnFailure(t *testing.T) {
	nav := seriesNavigator(30)
	// locate (1 call) succeeds, then every walk step fails.
	nav.FailAfter(1, nil)
	w := NewWalker(nav, WalkerOptions{})

	items, err := w.LocateAndWalkAround(context.Background(), seriesNewest.Add(-5*time.Hour), 10)
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Equal(t, []string{"item-0024"}, keysOf(items))
}
