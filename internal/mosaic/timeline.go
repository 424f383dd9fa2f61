package mosaic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tOgg1/mosaic/internal/models"
)

// TimelineIndexer resolves the collection's global time bounds. A
// successful resolution is cached; failures are retried on the next call.
type TimelineIndexer struct {
	nav   Navigator
	pager Paginator

	mu       sync.Mutex
	resolved bool
	bounds   models.TimelineBounds
}

// NewTimelineIndexer creates an indexer backed by nav. When the global
// first or last item has no timestamp, pager (if non-nil) walks inward to
// the nearest timestamped item.
func NewTimelineIndexer(nav Navigator, pager Paginator) *TimelineIndexer {
	return &TimelineIndexer{nav: nav, pager: pager}
}

// Resolve fetches the globally oldest and newest items. Missing or
// unparseable timestamps leave the bounds invalid, which disables the
// scrubber without stopping the browser.
func (t *TimelineIndexer) Resolve(ctx context.Context) (models.TimelineBounds, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return t.bounds, nil
	}
	bounds, err := t.fetch(ctx)
	if err != nil {
		return bounds, err
	}
	t.bounds, t.resolved = bounds, true
	return bounds, nil
}

func (t *TimelineIndexer) fetch(ctx context.Context) (models.TimelineBounds, error) {
	var (
		bounds models.TimelineBounds
		g      errgroup.Group
	)
	g.Go(func() error {
		ts, err := t.extreme(ctx, models.SelectorFirst, models.DirectionNewer)
		if err != nil {
			return fmt.Errorf("resolve oldest: %w", err)
		}
		bounds.Oldest = ts
		return nil
	})
	g.Go(func() error {
		ts, err := t.extreme(ctx, models.SelectorLast, models.DirectionOlder)
		if err != nil {
			return fmt.Errorf("resolve newest: %w", err)
		}
		bounds.Newest = ts
		return nil
	})
	err := g.Wait()
	return bounds, err
}

// extreme returns the timestamp of the first or last item. An untimed item
// there is stepped past toward the middle of the collection.
func (t *TimelineIndexer) extreme(ctx context.Context, sel models.Selector, inward models.Direction) (time.Time, error) {
	item, err := t.nav.Navigate(ctx, models.NavRequest{Selector: sel})
	if err != nil || item == nil {
		return time.Time{}, err
	}
	resolved := item.Resolve()
	if resolved.HasTimestamp() || t.pager == nil {
		return resolved.Timestamp, nil
	}
	batch, err := t.pager.Walk(ctx, inward, resolved.Key, 1)
	switch {
	case errors.Is(err, ErrUntimedRun):
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, err
	case len(batch) == 0:
		return time.Time{}, nil
	}
	return batch[0].Timestamp, nil
}

// Tick is a year boundary on the scrubber.
type Tick struct {
	Year    int
	Time    time.Time
	Ratio   float64
	Row     int
	Labeled bool
}

// Ticks builds one tick per calendar year from the newest year down to the
// oldest. Each tick sits at Jan 1 UTC, clamped into the bounds. A tick is
// labeled only when it is at least minGap rows below the previous labeled
// tick. Disabled mappers produce no ticks.
func Ticks(m *PositionMapper, extent, minGap int) []Tick {
	if !m.Enabled() || extent <= 0 {
		return nil
	}
	b := m.Bounds()
	ticks := make([]Tick, 0, b.Newest.Year()-b.Oldest.Year()+1)
	lastLabeled := math.MinInt / 2

	for year := b.Newest.Year(); year >= b.Oldest.Year(); year-- {
		ts := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if ts.Before(b.Oldest) {
			ts = b.Oldest
		}
		ratio := m.ToRatio(ts)
		row := int(math.Round(ratio * float64(extent-1)))
		tick := Tick{Year: year, Time: ts, Ratio: ratio, Row: row}
		if row-lastLabeled >= minGap {
			tick.Labeled = true
			lastLabeled = row
		}
		ticks = append(ticks, tick)
	}
	return ticks
}
