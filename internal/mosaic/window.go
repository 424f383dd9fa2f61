package mosaic

import (
	"fmt"
	"slices"
	"time"

	"github.com/tOgg1/mosaic/internal/models"
)

// InvariantError reports a candidate window that would break ordering or
// key uniqueness. It indicates a programming or backend-contract error; the
// window is left unchanged.
type InvariantError struct {
	Op     string
	Index  int
	Key    string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("window %s: invariant violated at %d (%s): %s", e.Op, e.Index, e.Key, e.Reason)
}

// Window is the loaded, ordered subset of the collection. Items are
// strictly newest first by (timestamp, key) and keys are unique. It grows
// at the head or tail and only shrinks through Reset.
type Window struct {
	items []models.ChronoItem
	keys  map[string]struct{}
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{keys: make(map[string]struct{})}
}

// Len returns the number of loaded items.
func (w *Window) Len() int {
	return len(w.items)
}

// At returns the item at index i.
func (w *Window) At(i int) models.ChronoItem {
	return w.items[i]
}

// Items returns a copy of the loaded items.
func (w *Window) Items() []models.ChronoItem {
	return slices.Clone(w.items)
}

// Head returns the newest loaded item.
func (w *Window) Head() (models.ChronoItem, bool) {
	if len(w.items) == 0 {
		return models.ChronoItem{}, false
	}
	return w.items[0], true
}

// Tail returns the oldest loaded item.
func (w *Window) Tail() (models.ChronoItem, bool) {
	if len(w.items) == 0 {
		return models.ChronoItem{}, false
	}
	return w.items[len(w.items)-1], true
}

// Contains reports whether key is loaded.
func (w *Window) Contains(key string) bool {
	_, ok := w.keys[key]
	return ok
}

// IndexOf returns the index of key, or -1.
func (w *Window) IndexOf(key string) int {
	if !w.Contains(key) {
		return -1
	}
	return slices.IndexFunc(w.items, func(it models.ChronoItem) bool { return it.Key == key })
}

// NearestIndex returns the index of the newest item at or before ts, the
// last index when ts precedes everything, or -1 for an empty window.
func (w *Window) NearestIndex(ts time.Time) int {
	if len(w.items) == 0 {
		return -1
	}
	i, _ := slices.BinarySearchFunc(w.items, ts, func(it models.ChronoItem, target time.Time) int {
		if it.Timestamp.After(target) {
			return -1
		}
		return 1
	})
	return min(i, len(w.items)-1)
}

// AppendOlder appends batch at the tail. Keys already loaded anywhere in the
// window, repeated keys and untimed items are dropped. It returns the number
// of items added.
func (w *Window) AppendOlder(batch []models.ChronoItem) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	survivors := w.filter(batch)
	if len(survivors) == 0 {
		return 0, nil
	}

	candidate := append(slices.Clip(w.items), survivors...)
	if err := validateWindow("append", candidate); err != nil {
		return 0, err
	}
	w.commit(candidate, survivors)
	return len(survivors), nil
}

// PrependNewer places batch at the head. The batch arrives in
// reference-to-newest order and is reversed so the head stays newest first.
// It returns the growth in items, which the caller uses to keep the viewport
// anchored.
func (w *Window) PrependNewer(batch []models.ChronoItem) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	survivors := w.filter(batch)
	if len(survivors) == 0 {
		return 0, nil
	}
	slices.Reverse(survivors)

	candidate := make([]models.ChronoItem, 0, len(survivors)+len(w.items))
	candidate = append(candidate, survivors...)
	candidate = append(candidate, w.items...)
	if err := validateWindow("prepend", candidate); err != nil {
		return 0, err
	}
	w.commit(candidate, survivors)
	return len(survivors), nil
}

// Reset replaces the whole window with batch, sorted newest first. Untimed
// items and repeated keys are dropped.
func (w *Window) Reset(batch []models.ChronoItem) error {
	next := make([]models.ChronoItem, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, item := range batch {
		if !item.HasTimestamp() {
			continue
		}
		if _, dup := seen[item.Key]; dup {
			continue
		}
		seen[item.Key] = struct{}{}
		next = append(next, item)
	}
	slices.SortStableFunc(next, models.CompareNewestFirst)
	if err := validateWindow("reset", next); err != nil {
		return err
	}
	w.items = next
	w.keys = seen
	return nil
}

func (w *Window) filter(batch []models.ChronoItem) []models.ChronoItem {
	out := make([]models.ChronoItem, 0, len(batch))
	inBatch := make(map[string]struct{}, len(batch))
	for _, item := range batch {
		if !item.HasTimestamp() || w.Contains(item.Key) {
			continue
		}
		if _, dup := inBatch[item.Key]; dup {
			continue
		}
		inBatch[item.Key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (w *Window) commit(items, added []models.ChronoItem) {
	w.items = items
	for _, item := range added {
		w.keys[item.Key] = struct{}{}
	}
}

func validateWindow(op string, items []models.ChronoItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if _, dup := seen[item.Key]; dup {
			return &InvariantError{Op: op, Index: i, Key: item.Key, Reason: "duplicate key"}
		}
		seen[item.Key] = struct{}{}
		if i > 0 && !item.Before(items[i-1]) {
			return &InvariantError{Op: op, Index: i, Key: item.Key, Reason: "not older than its predecessor"}
		}
	}
	return nil
}
