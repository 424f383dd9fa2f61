package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Selector names one of the single-step navigation primitives.
type Selector string

const (
	SelectorFirst    Selector = "first"
	SelectorLast     Selector = "last"
	SelectorNext     Selector = "next"
	SelectorPrevious Selector = "previous"
	SelectorRandom   Selector = "random"
)

// ErrInvalidSelector is returned for unknown selector names.
var ErrInvalidSelector = errors.New("invalid selector")

// ParseSelector validates a selector name.
func ParseSelector(raw string) (Selector, error) {
	sel := Selector(strings.ToLower(strings.TrimSpace(raw)))
	switch sel {
	case SelectorFirst, SelectorLast, SelectorNext, SelectorPrevious, SelectorRandom:
		return sel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSelector, raw)
	}
}

// Direction is the chronological direction of a walk.
type Direction int

const (
	DirectionOlder Direction = iota
	DirectionNewer
)

func (d Direction) String() string {
	if d == DirectionNewer {
		return "newer"
	}
	return "older"
}

// NavRequest is a single call to the navigation primitive.
type NavRequest struct {
	Selector  Selector
	Key       string
	Timestamp time.Time
}

// Validate checks that the reference matches the selector.
func (r NavRequest) Validate() error {
	var errs ValidationErrors
	if _, err := ParseSelector(string(r.Selector)); err != nil {
		errs.Add("selector", err)
	}
	switch r.Selector {
	case SelectorNext, SelectorPrevious:
		if strings.TrimSpace(r.Key) == "" {
			errs.AddMessage("key", "reference key is required for "+string(r.Selector))
		}
	case SelectorFirst, SelectorLast, SelectorRandom:
		if strings.TrimSpace(r.Key) != "" {
			errs.AddMessage("key", "reference key is not supported for "+string(r.Selector))
		}
	}
	return errs.Err()
}

// TimelineBounds holds the oldest and newest timestamps reachable in the
// collection.
type TimelineBounds struct {
	Oldest time.Time
	Newest time.Time
}

// Valid reports whether the bounds describe a non-empty time range.
func (b TimelineBounds) Valid() bool {
	return !b.Oldest.IsZero() && !b.Newest.IsZero() && b.Newest.After(b.Oldest)
}

// Span returns newest - oldest, or zero for invalid bounds.
func (b TimelineBounds) Span() time.Duration {
	if !b.Valid() {
		return 0
	}
	return b.Newest.Sub(b.Oldest)
}

// Contains reports whether ts lies within the bounds, inclusive.
func (b TimelineBounds) Contains(ts time.Time) bool {
	return !ts.Before(b.Oldest) && !ts.After(b.Newest)
}

// StepSelector maps a chronological direction onto the backend's
// next/previous selectors. By default previous is older and next is newer;
// invert swaps them for backends with the opposite convention.
func StepSelector(dir Direction, invert bool) Selector {
	older := dir == DirectionOlder
	if invert {
		older = !older
	}
	if older {
		return SelectorPrevious
	}
	return SelectorNext
}
