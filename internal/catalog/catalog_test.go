package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/mosaic"
)

var newest = time.Date(2023, 12, 31, 18, 0, 0, 0, time.UTC)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func rec(key string, hoursAgo int) Record {
	ts := newest.Add(-time.Duration(hoursAgo) * time.Hour)
	return Record{Key: key, TakenAt: ts.Format(time.RFC3339), UploadedAt: ts, ContentRef: "ref-" + key}
}

func navigate(t *testing.T, c *Catalog, req models.NavRequest) string {
	t.Helper()
	item, err := c.Navigate(context.Background(), req)
	require.NoError(t, err)
	if item == nil {
		return ""
	}
	return item.Key
}

func TestCatalogNavigation(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Insert(context.Background(),
		rec("a", 30), rec("b", 20), rec("c", 10), rec("d", 0),
	))

	require.Equal(t, "a", navigate(t, c, models.NavRequest{Selector: models.SelectorFirst}))
	require.Equal(t, "d", navigate(t, c, models.NavRequest{Selector: models.SelectorLast}))
	require.Equal(t, "c", navigate(t, c, models.NavRequest{Selector: models.SelectorNext, Key: "b"}))
	require.Equal(t, "a", navigate(t, c, models.NavRequest{Selector: models.SelectorPrevious, Key: "b"}))

	// Ends echo the reference.
	require.Equal(t, "d", navigate(t, c, models.NavRequest{Selector: models.SelectorNext, Key: "d"}))
	require.Equal(t, "a", navigate(t, c, models.NavRequest{Selector: models.SelectorPrevious, Key: "a"}))

	at := newest.Add(-20 * time.Hour)
	require.Equal(t, "b", navigate(t, c, models.NavRequest{Selector: models.SelectorFirst, Timestamp: at}))
	require.Equal(t, "a", navigate(t, c, models.NavRequest{Selector: models.SelectorLast, Timestamp: at}))
	require.Empty(t, navigate(t, c, models.NavRequest{Selector: models.SelectorFirst, Timestamp: newest.Add(time.Second)}))
	require.Empty(t, navigate(t, c, models.NavRequest{Selector: models.SelectorLast, Timestamp: newest.Add(-30 * time.Hour)}))

	require.Contains(t, []string{"a", "b", "c", "d"}, navigate(t, c, models.NavRequest{Selector: models.SelectorRandom}))
}

func TestCatalogOrderFallsBackThroughTimestamps(t *testing.T) {
	c := openTestCatalog(t)
	nested := Record{
		Key:             "nested",
		OriginalTakenAt: newest.Add(-15 * time.Hour).Format("2006:01:02 15:04:05"),
		UploadedAt:      newest,
	}
	uploadedOnly := Record{Key: "uploaded", UploadedAt: newest.Add(-5 * time.Hour)}
	require.NoError(t, c.Insert(context.Background(), rec("b", 20), rec("c", 10), rec("d", 0), nested, uploadedOnly))

	require.Equal(t, "nested", navigate(t, c, models.NavRequest{Selector: models.SelectorNext, Key: "b"}))
	require.Equal(t, "uploaded", navigate(t, c, models.NavRequest{Selector: models.SelectorNext, Key: "c"}))

	item, err := c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorPrevious, Key: "c"})
	require.NoError(t, err)
	require.Equal(t, "nested", item.Key)
	require.NotNil(t, item.Metadata)
	require.Equal(t, newest.Add(-15*time.Hour), item.Resolve().Timestamp)

	up, err := c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorNext, Key: "c"})
	require.NoError(t, err)
	require.False(t, up.Resolve().HasTimestamp())
}

func TestCatalogEqualTimestampsOrderByKey(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Insert(context.Background(), rec("x", 5), rec("y", 5), rec("z", 5)))

	require.Equal(t, "y", navigate(t, c, models.NavRequest{Selector: models.SelectorNext, Key: "x"}))
	require.Equal(t, "z", navigate(t, c, models.NavRequest{Selector: models.SelectorNext, Key: "y"}))
	require.Equal(t, "x", navigate(t, c, models.NavRequest{Selector: models.SelectorPrevious, Key: "y"}))
}

func TestCatalogErrors(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	_, err := c.Navigate(ctx, models.NavRequest{Selector: models.SelectorNext, Key: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Navigate(ctx, models.NavRequest{Selector: models.SelectorNext})
	require.Error(t, err)

	err = c.Insert(ctx, Record{Key: " "})
	require.ErrorIs(t, err, models.ErrMissingKey)
	require.ErrorContains(t, err, "uploaded_at")

	item, err := c.Navigate(ctx, models.NavRequest{Selector: models.SelectorLast})
	require.NoError(t, err)
	require.Nil(t, item)
}

func TestCatalogSeed(t *testing.T) {
	c := openTestCatalog(t)
	opts := DefaultSeedOptions()
	opts.Count = 300
	opts.BatchSize = 64
	opts.Seed = 42
	opts.Newest = newest

	n, err := c.Seed(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 300, n)

	count, err := c.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 300, count)

	last, err := c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorLast})
	require.NoError(t, err)
	require.False(t, last.Resolve().Timestamp.After(newest.Add(72*time.Hour)))
}

func TestGenerateRecordsShares(t *testing.T) {
	opts := SeedOptions{Count: 1000, Span: 10 * 365 * 24 * time.Hour, UntimedShare: 0.1, NestedShare: 0.2, Seed: 7, Newest: newest}
	records := GenerateRecords(opts)
	require.Len(t, records, 1000)

	var untimed, nested int
	keys := map[string]bool{}
	for _, r := range records {
		keys[r.Key] = true
		switch {
		case r.TakenAt == "" && r.OriginalTakenAt == "":
			untimed++
		case r.TakenAt == "":
			nested++
		}
		require.False(t, r.SortTime().After(newest.Add(72*time.Hour)))
	}
	require.Len(t, keys, 1000)
	require.InDelta(t, 100, untimed, 40)
	require.InDelta(t, 200, nested, 50)
}

func TestCatalogBoundsSkipUntimedExtremes(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Insert(context.Background(),
		Record{Key: "scan", UploadedAt: newest.Add(-100 * time.Hour)},
		rec("a", 30), rec("b", 20), rec("d", 0),
		Record{Key: "late-upload", UploadedAt: newest.Add(5 * time.Hour)},
	))
	require.Equal(t, "scan", navigate(t, c, models.NavRequest{Selector: models.SelectorFirst}))
	require.Equal(t, "late-upload", navigate(t, c, models.NavRequest{Selector: models.SelectorLast}))

	idx := mosaic.NewTimelineIndexer(c, mosaic.NewWalker(c, mosaic.WalkerOptions{MaxUntimedSkip: 8}))
	bounds, err := idx.Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, bounds.Valid())
	require.True(t, bounds.Oldest.Equal(newest.Add(-30*time.Hour)))
	require.True(t, bounds.Newest.Equal(newest))
}
