package mosaic

import "math"

// Viewport is the scroll container the controller drives. Units are
// rendering rows for the terminal browser but any linear unit works.
type Viewport interface {
	// Extent is the total content height.
	Extent() int
	// Offset is the distance from the top of the content to the top of the
	// visible area.
	Offset() int
	// SetOffset scrolls to offset; implementations clamp it.
	SetOffset(offset int)
	// Size is the visible height.
	Size() int
}

// LayoutObserver is implemented by viewports whose layout depends on where
// items entered the window. The controller calls it before re-reading
// Extent.
type LayoutObserver interface {
	// WindowReset is called after the window was replaced.
	WindowReset()
	// ItemsPrepended is called after n newer items were added at the top.
	ItemsPrepended(n int)
}

// scrollRatio is the offset as a fraction of the scrollable range.
func scrollRatio(vp Viewport) float64 {
	scrollable := vp.Extent() - vp.Size()
	if scrollable <= 0 {
		return 0
	}
	return clampUnit(float64(vp.Offset()) / float64(scrollable))
}

// visibleIndex approximates the index of the item under the viewport by
// interpolating the scroll ratio across n items.
func visibleIndex(vp Viewport, n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round(scrollRatio(vp) * float64(n-1)))
}

// offsetForIndex is the inverse of visibleIndex.
func offsetForIndex(vp Viewport, index, n int) int {
	scrollable := vp.Extent() - vp.Size()
	if scrollable <= 0 || n <= 1 {
		return 0
	}
	return int(math.Round(float64(index) / float64(n-1) * float64(scrollable)))
}
