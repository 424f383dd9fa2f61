// Package models defines the data types shared by the Mosaic browser,
// its backend transports and the reference catalog.
package models

import (
	"strings"
	"time"
)

// ChronoItem is a single browsable unit: a uniquely keyed media item with
// an optional capture timestamp and a reference to renderable content.
type ChronoItem struct {
	// Key is the opaque unique identifier assigned by the backend.
	Key string `json:"key"`

	// Timestamp is the resolved capture time. Zero means unknown.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// ContentRef is used to build the display URL for the item.
	ContentRef string `json:"content_ref,omitempty"`
}

// HasTimestamp reports whether the item can take part in the chronological window.
func (c ChronoItem) HasTimestamp() bool {
	return !c.Timestamp.IsZero()
}

// Before reports whether c sorts after other in newest-first order.
// Timestamps decide first; equal timestamps fall back to the key so the
// order stays strict.
func (c ChronoItem) Before(other ChronoItem) bool {
	if !c.Timestamp.Equal(other.Timestamp) {
		return c.Timestamp.Before(other.Timestamp)
	}
	return c.Key < other.Key
}

// CompareNewestFirst orders items newest first. It is suitable for
// slices.SortStableFunc.
func CompareNewestFirst(a, b ChronoItem) int {
	switch {
	case a.Key == b.Key && a.Timestamp.Equal(b.Timestamp):
		return 0
	case b.Before(a):
		return -1
	default:
		return 1
	}
}

// WireItem is the item shape returned by the navigation backend.
type WireItem struct {
	Key        string        `json:"key"`
	TakenAt    string        `json:"taken_at,omitempty"`
	Metadata   *WireMetadata `json:"metadata,omitempty"`
	ContentRef string        `json:"content_ref,omitempty"`
}

// WireMetadata carries nested capture information, such as the original
// EXIF capture time.
type WireMetadata struct {
	OriginalTakenAt string `json:"original_taken_at,omitempty"`
}

// timestampLayouts lists accepted backend timestamp formats in priority order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006:01:02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. The result is always UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a timestamp in the wire format.
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

// Resolve converts the wire shape into a ChronoItem. The direct timestamp
// wins; the nested original capture time is the fallback.
func (w WireItem) Resolve() ChronoItem {
	item := ChronoItem{
		Key:        strings.TrimSpace(w.Key),
		ContentRef: strings.TrimSpace(w.ContentRef),
	}
	if ts, ok := ParseTimestamp(w.TakenAt); ok {
		item.Timestamp = ts
		return item
	}
	if w.Metadata != nil {
		if ts, ok := ParseTimestamp(w.Metadata.OriginalTakenAt); ok {
			item.Timestamp = ts
		}
	}
	return item
}
