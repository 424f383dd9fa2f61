package mosaictui

import "github.com/tOgg1/mosaic/internal/mosaic"

// gridViewport lays the window out in rows of cols tiles, rowHeight lines
// each. Offsets are in terminal lines. The first row starts with lead blank
// cells so that prepends keep every loaded tile in its column.
type gridViewport struct {
	window    *mosaic.Window
	cols      int
	lead      int
	rowHeight int
	size      int
	offset    int
}

var (
	_ mosaic.Viewport       = (*gridViewport)(nil)
	_ mosaic.LayoutObserver = (*gridViewport)(nil)
)

func newGridViewport(window *mosaic.Window, rowHeight int) *gridViewport {
	return &gridViewport{window: window, cols: 1, rowHeight: max(1, rowHeight)}
}

func (g *gridViewport) rows() int {
	n := g.window.Len()
	if n == 0 {
		return 0
	}
	return (g.lead + n + g.cols - 1) / g.cols
}

func (g *gridViewport) Extent() int { return g.rows() * g.rowHeight }
func (g *gridViewport) Offset() int { return g.offset }
func (g *gridViewport) Size() int   { return g.size }

func (g *gridViewport) SetOffset(offset int) {
	g.offset = clampInt(offset, 0, max(0, g.Extent()-g.size))
}

func (g *gridViewport) WindowReset() { g.lead = 0 }

// ItemsPrepended shifts the lead so the new items fill whole rows above the
// old ones.
func (g *gridViewport) ItemsPrepended(n int) {
	g.lead = ((g.lead-n)%g.cols + g.cols) % g.cols
}

// resize changes the layout and keeps the top visible item in view.
func (g *gridViewport) resize(cols, size int) {
	top, _ := g.visibleRange()
	g.cols = max(1, cols)
	g.lead = 0
	g.size = max(0, size)
	g.SetOffset(g.rowOf(top) * g.rowHeight)
}

func (g *gridViewport) rowOf(index int) int {
	return (g.lead + index) / g.cols
}

// cellIndex returns the item index at row and column, which may fall
// outside the window.
func (g *gridViewport) cellIndex(row, col int) int {
	return row*g.cols + col - g.lead
}

func (g *gridViewport) firstVisibleRow() int {
	return g.offset / g.rowHeight
}

// visibleRows returns the first and one-past-last rows with any line on
// screen.
func (g *gridViewport) visibleRows() (int, int) {
	if g.window.Len() == 0 || g.size == 0 {
		return 0, 0
	}
	return g.firstVisibleRow(), min(g.rows(), (g.offset+g.size-1)/g.rowHeight+1)
}

// visibleRange returns the first and one-past-last item indexes with any
// line on screen.
func (g *gridViewport) visibleRange() (int, int) {
	firstRow, endRow := g.visibleRows()
	if firstRow >= endRow {
		return 0, 0
	}
	n := g.window.Len()
	first := clampInt(g.cellIndex(firstRow, 0), 0, n)
	end := clampInt(g.cellIndex(endRow, 0), 0, n)
	return first, end
}

// ensureVisible scrolls the minimum distance that shows the whole row of index.
func (g *gridViewport) ensureVisible(index int) {
	top := g.rowOf(index) * g.rowHeight
	switch {
	case top < g.offset:
		g.SetOffset(top)
	case top+g.rowHeight > g.offset+g.size:
		g.SetOffset(top + g.rowHeight - g.size)
	}
}

// indexAt maps a point in the grid area to an item index, or -1.
func (g *gridViewport) indexAt(x, y, tileWidth int) int {
	if x < 0 || y < 0 || y >= g.size || tileWidth <= 0 {
		return -1
	}
	col := x / tileWidth
	if col >= g.cols {
		return -1
	}
	idx := g.cellIndex((g.offset+y)/g.rowHeight, col)
	if idx < 0 || idx >= g.window.Len() {
		return -1
	}
	return idx
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
