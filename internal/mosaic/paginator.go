package mosaic

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tOgg1/mosaic/internal/logging"
	"github.com/tOgg1/mosaic/internal/models"
)

// Navigator is the single-step navigation primitive exposed by the backend.
// A nil item with a nil error means the backend had nothing to return.
type Navigator interface {
	Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error)
}

// Paginator produces ordered batches of items. Walker emulates ranged reads
// with repeated neighbor steps; a backend with a real range query can
// provide its own implementation.
type Paginator interface {
	// Walk collects up to maxCount timestamped items in dir, starting after
	// refKey. Older walks return items newest first; newer walks return them
	// in reference-to-newest order. A failure returns the partial batch
	// together with the error.
	Walk(ctx context.Context, dir models.Direction, refKey string, maxCount int) ([]models.ChronoItem, error)

	// LocateAndWalkAround returns up to total items around target, sorted
	// newest first. An empty collection yields an empty batch.
	LocateAndWalkAround(ctx context.Context, target time.Time, total int) ([]models.ChronoItem, error)
}

// ErrUntimedRun is returned when a walk meets more consecutive items without
// a timestamp than it is allowed to skip.
var ErrUntimedRun = errors.New("too many consecutive items without a timestamp")

// WalkerOptions tunes a Walker.
type WalkerOptions struct {
	// InvertDirection swaps next/previous.
	InvertDirection bool

	// MaxUntimedSkip caps consecutive untimed items skipped (0 = unlimited).
	MaxUntimedSkip int

	// Timeout bounds one Walk or LocateAndWalkAround call (0 = none).
	Timeout time.Duration
}

// Walker implements Paginator on top of a Navigator.
type Walker struct {
	nav    Navigator
	opts   WalkerOptions
	logger zerolog.Logger
}

var _ Paginator = (*Walker)(nil)

// NewWalker creates a Walker.
func NewWalker(nav Navigator, opts WalkerOptions) *Walker {
	return &Walker{
		nav:    nav,
		opts:   opts,
		logger: logging.Component("walker"),
	}
}

func (w *Walker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.opts.Timeout > 0 {
		return context.WithTimeout(ctx, w.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// Walk implements Paginator.
func (w *Walker) Walk(ctx context.Context, dir models.Direction, refKey string, maxCount int) ([]models.ChronoItem, error) {
	if maxCount <= 0 || refKey == "" {
		return nil, nil
	}
	ctx, cancel := w.withTimeout(ctx)
	defer cancel()
	return w.walk(ctx, dir, refKey, maxCount)
}

func (w *Walker) walk(ctx context.Context, dir models.Direction, refKey string, maxCount int) ([]models.ChronoItem, error) {
	selector := models.StepSelector(dir, w.opts.InvertDirection)
	batch := make([]models.ChronoItem, 0, maxCount)
	seen := map[string]struct{}{refKey: {}}
	ref := refKey
	untimed := 0
	steps := 0

	defer func() {
		w.logger.Debug().
			Str("direction", dir.String()).
			Str("ref", refKey).
			Int("steps", steps).
			Int("items", len(batch)).
			Msg("walk finished")
	}()

	for len(batch) < maxCount {
		if err := ctx.Err(); err != nil {
			return batch, fmt.Errorf("walk %s from %s: %w", dir, refKey, err)
		}

		steps++
		wire, err := w.nav.Navigate(ctx, models.NavRequest{Selector: selector, Key: ref})
		if err != nil {
			return batch, fmt.Errorf("walk %s from %s: %w", dir, refKey, err)
		}
		// End of data: nothing returned, or the backend echoed the reference.
		if wire == nil || wire.Key == "" || wire.Key == ref {
			return batch, nil
		}
		if _, dup := seen[wire.Key]; dup {
			w.logger.Warn().Str("key", wire.Key).Msg("walk revisited an item; stopping")
			return batch, nil
		}
		seen[wire.Key] = struct{}{}

		item := wire.Resolve()
		ref = item.Key
		if !item.HasTimestamp() {
			untimed++
			if w.opts.MaxUntimedSkip > 0 && untimed > w.opts.MaxUntimedSkip {
				return batch, fmt.Errorf("walk %s from %s: %w", dir, refKey, ErrUntimedRun)
			}
			continue
		}
		untimed = 0
		batch = append(batch, item)
	}
	return batch, nil
}

// LocateAndWalkAround implements Paginator. The start item is the first item
// at or after target, falling back to the last item before it; a zero target
// starts from the newest item. Half of total is walked older and the rest,
// minus the start item, newer. Both walks run concurrently.
func (w *Walker) LocateAndWalkAround(ctx context.Context, target time.Time, total int) ([]models.ChronoItem, error) {
	if total <= 0 {
		return nil, nil
	}
	ctx, cancel := w.withTimeout(ctx)
	defer cancel()

	start, err := w.locate(ctx, target)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, nil
	}

	startItem := start.Resolve()
	olderCount := total / 2
	newerCount := total - olderCount - 1
	if !startItem.HasTimestamp() {
		newerCount++
	}

	var (
		g            errgroup.Group
		older, newer []models.ChronoItem
		olderErr     error
		newerErr     error
	)
	g.Go(func() error {
		older, olderErr = w.walk(ctx, models.DirectionOlder, startItem.Key, olderCount)
		return nil
	})
	g.Go(func() error {
		newer, newerErr = w.walk(ctx, models.DirectionNewer, startItem.Key, newerCount)
		return nil
	})
	_ = g.Wait()

	out := make([]models.ChronoItem, 0, len(older)+len(newer)+1)
	out = append(out, newer...)
	if startItem.HasTimestamp() {
		out = append(out, startItem)
	}
	out = append(out, older...)
	slices.SortStableFunc(out, models.CompareNewestFirst)
	out = slices.CompactFunc(out, func(a, b models.ChronoItem) bool { return a.Key == b.Key })

	return out, errors.Join(olderErr, newerErr)
}

func (w *Walker) locate(ctx context.Context, target time.Time) (*models.WireItem, error) {
	if target.IsZero() {
		item, err := w.nav.Navigate(ctx, models.NavRequest{Selector: models.SelectorLast})
		if err != nil {
			return nil, fmt.Errorf("locate newest: %w", err)
		}
		return item, nil
	}

	item, err := w.nav.Navigate(ctx, models.NavRequest{Selector: models.SelectorFirst, Timestamp: target})
	if err != nil {
		return nil, fmt.Errorf("locate first at/after %s: %w", models.FormatTimestamp(target), err)
	}
	if item != nil && item.Key != "" {
		return item, nil
	}

	item, err = w.nav.Navigate(ctx, models.NavRequest{Selector: models.SelectorLast, Timestamp: target})
	if err != nil {
		return nil, fmt.Errorf("locate last before %s: %w", models.FormatTimestamp(target), err)
	}
	if item == nil || item.Key == "" {
		return nil, nil
	}
	return item, nil
}
