package mosaic

import (
	"math"
	"time"

	"github.com/tOgg1/mosaic/internal/models"
)

// warpK controls how strongly the scrubber favors recent time.
const warpK = 3.0

// PositionMapper converts between a scrubber ratio in [0,1] and a
// timestamp. Ratio 0 is the newest bound and ratio 1 the oldest; the
// exponential warp gives recent time more scrubber rows than old history.
type PositionMapper struct {
	bounds models.TimelineBounds
	span   float64 // seconds
	denom  float64 // e^k - 1
}

// NewPositionMapper creates a mapper over bounds. Invalid bounds produce a
// disabled mapper.
func NewPositionMapper(bounds models.TimelineBounds) *PositionMapper {
	return &PositionMapper{
		bounds: bounds,
		span:   secondsBetween(bounds.Newest, bounds.Oldest),
		denom:  math.Expm1(warpK),
	}
}

// Enabled reports whether the bounds span a positive range.
func (m *PositionMapper) Enabled() bool {
	return m != nil && m.bounds.Valid() && m.span > 0
}

// Bounds returns the bounds the mapper was built with.
func (m *PositionMapper) Bounds() models.TimelineBounds {
	if m == nil {
		return models.TimelineBounds{}
	}
	return m.bounds
}

// ToTimestamp maps a ratio onto the timeline. When the mapper is disabled it
// always returns the newest bound.
func (m *PositionMapper) ToTimestamp(ratio float64) time.Time {
	if !m.Enabled() {
		return m.Bounds().Newest
	}
	r := clampUnit(ratio)
	switch r {
	case 0:
		return m.bounds.Newest
	case 1:
		return m.bounds.Oldest
	}
	np := math.Expm1(warpK*r) / m.denom
	return subSeconds(m.bounds.Newest, np*m.span)
}

// ToRatio maps a timestamp onto the scrubber. Timestamps outside the bounds
// clamp to the nearest end; a disabled mapper returns 0.
func (m *PositionMapper) ToRatio(ts time.Time) float64 {
	if !m.Enabled() {
		return 0
	}
	np := clampUnit(secondsBetween(m.bounds.Newest, ts) / m.span)
	switch np {
	case 0:
		return 0
	case 1:
		return 1
	}
	return clampUnit(math.Log1p(np*m.denom) / warpK)
}

// secondsBetween returns a-b in seconds. time.Time.Sub saturates at about
// 292 years, which bogus capture years (1601, 1970) easily exceed.
func secondsBetween(a, b time.Time) float64 {
	return float64(a.Unix()-b.Unix()) + float64(a.Nanosecond()-b.Nanosecond())/1e9
}

// subSeconds moves t back by secs, applied as whole seconds plus nanoseconds.
func subSeconds(t time.Time, secs float64) time.Time {
	whole := math.Floor(secs)
	nanos := int64(math.Round((secs - whole) * 1e9))
	return time.Unix(t.Unix()-int64(whole), int64(t.Nanosecond())-nanos).In(t.Location())
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}
