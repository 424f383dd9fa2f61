// Package testutil provides fixtures shared by Mosaic package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tOgg1/mosaic/internal/models"
)

// ErrInjected is the default failure returned by FailAfter.
var ErrInjected = errors.New("injected navigation failure")

// ErrUnknownKey is returned when a next/previous reference does not exist.
var ErrUnknownKey = errors.New("unknown reference key")

type entry struct {
	item models.WireItem
	at   time.Time
}

// Navigator is an in-memory navigation backend. Items are ordered by their
// sort time, then key, the same way the SQLite catalog orders them.
type Navigator struct {
	mu      sync.Mutex
	entries []entry

	calls     atomic.Int64
	failAfter int64
	failErr   error
	latency   time.Duration
	inverted  bool
	random    func(n int) int
}

// NewNavigator creates a navigator holding items. Each item sorts by its
// resolved timestamp.
func NewNavigator(items ...models.WireItem) *Navigator {
	n := &Navigator{failAfter: -1, random: rand.IntN}
	for _, item := range items {
		n.Add(item, item.Resolve().Timestamp)
	}
	return n
}

// Add inserts item with an explicit sort time. Use it for items whose wire
// shape carries no timestamp but which still have a place in the backend's
// order.
func (n *Navigator) Add(item models.WireItem, at time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry{item: item, at: at.UTC()})
	slices.SortStableFunc(n.entries, func(a, b entry) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		switch {
		case a.item.Key < b.item.Key:
			return -1
		case a.item.Key > b.item.Key:
			return 1
		}
		return 0
	})
}

// FailAfter makes every call after the first ok calls fail with err
// (ErrInjected when err is nil). A negative ok disables failures.
func (n *Navigator) FailAfter(ok int, err error) {
	if err == nil {
		err = ErrInjected
	}
	n.mu.Lock()
	n.failAfter = int64(ok)
	n.failErr = err
	n.mu.Unlock()
}

// SetLatency delays every call, honoring context cancellation.
func (n *Navigator) SetLatency(d time.Duration) {
	n.mu.Lock()
	n.latency = d
	n.mu.Unlock()
}

// SetInverted makes next step older and previous step newer.
func (n *Navigator) SetInverted(inverted bool) {
	n.mu.Lock()
	n.inverted = inverted
	n.mu.Unlock()
}

// SetRandom overrides the index chooser used by the random selector.
func (n *Navigator) SetRandom(fn func(n int) int) {
	n.mu.Lock()
	n.random = fn
	n.mu.Unlock()
}

// Calls returns the number of Navigate calls so far.
func (n *Navigator) Calls() int {
	return int(n.calls.Load())
}

// Len returns the number of items held.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Navigate implements the single-step navigation contract.
func (n *Navigator) Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	call := n.calls.Add(1)

	n.mu.Lock()
	latency := n.latency
	failAfter, failErr := n.failAfter, n.failErr
	n.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failAfter >= 0 && call > failAfter {
		return nil, failErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.entries) == 0 {
		return nil, nil
	}

	idx := -1
	switch req.Selector {
	case models.SelectorFirst:
		if req.Timestamp.IsZero() {
			idx = 0
			break
		}
		for i, e := range n.entries {
			if !e.at.Before(req.Timestamp) {
				idx = i
				break
			}
		}
	case models.SelectorLast:
		if req.Timestamp.IsZero() {
			idx = len(n.entries) - 1
			break
		}
		for i := len(n.entries) - 1; i >= 0; i-- {
			if n.entries[i].at.Before(req.Timestamp) {
				idx = i
				break
			}
		}
	case models.SelectorRandom:
		idx = n.random(len(n.entries))
	case models.SelectorNext, models.SelectorPrevious:
		ref := slices.IndexFunc(n.entries, func(e entry) bool { return e.item.Key == req.Key })
		if ref < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, req.Key)
		}
		step := 1
		if (req.Selector == models.SelectorPrevious) != n.inverted {
			step = -1
		}
		idx = ref + step
		// At either end the reference itself comes back.
		if idx < 0 || idx >= len(n.entries) {
			idx = ref
		}
	}

	if idx < 0 {
		return nil, nil
	}
	item := n.entries[idx].item
	return &item, nil
}

// Item builds a wire item with a direct timestamp.
func Item(key string, ts time.Time) models.WireItem {
	return models.WireItem{
		Key:        key,
		TakenAt:    models.FormatTimestamp(ts),
		ContentRef: "content-" + key,
	}
}

// Series builds count items spaced step apart, the newest at newest.
// Keys are "item-0000" (oldest) upwards.
func Series(count int, newest time.Time, step time.Duration) []models.WireItem {
	items := make([]models.WireItem, 0, count)
	for i := 0; i < count; i++ {
		ts := newest.Add(-time.Duration(count-1-i) * step)
		items = append(items, Item(fmt.Sprintf("item-%04d", i), ts))
	}
	return items
}
