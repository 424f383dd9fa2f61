package mosaictui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/mosaic"
	"github.com/tOgg1/mosaic/internal/mosaictui/styles"
	"github.com/tOgg1/mosaic/internal/testutil"
)

func windowOf(t *testing.T, n int) *mosaic.Window {
	t.Helper()
	items := make([]models.ChronoItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.ChronoItem{
			Key:       fmt.Sprintf("k%02d", i),
			Timestamp: testNewest.Add(-time.Duration(i) * time.Hour),
		})
	}
	w := mosaic.NewWindow()
	require.NoError(t, w.Reset(items))
	return w
}

func TestGridViewportGeometry(t *testing.T) {
	g := newGridViewport(windowOf(t, 10), 4)
	g.resize(3, 8)

	require.Equal(t, 16, g.Extent())
	g.SetOffset(100)
	require.Equal(t, 8, g.Offset())
	g.SetOffset(-3)
	require.Equal(t, 0, g.Offset())

	g.ensureVisible(9)
	require.Equal(t, 8, g.Offset())
	g.ensureVisible(0)
	require.Equal(t, 0, g.Offset())

	g.SetOffset(8)
	first, end := g.visibleRange()
	require.Equal(t, 6, first)
	require.Equal(t, 10, end)

	require.Equal(t, 8, g.indexAt(20, 1, 10))
	require.Equal(t, -1, g.indexAt(35, 1, 10))
	require.Equal(t, -1, g.indexAt(0, 8, 10))

	g.resize(2, 8)
	require.Equal(t, 12, g.Offset(), "top visible item stays in view after resize")
}

func TestGridViewportEmptyWindow(t *testing.T) {
	g := newGridViewport(mosaic.NewWindow(), 4)
	g.resize(4, 20)
	require.Zero(t, g.Extent())
	g.SetOffset(10)
	require.Zero(t, g.Offset())
	first, end := g.visibleRange()
	require.Equal(t, first, end)
	require.Equal(t, -1, g.indexAt(0, 0, 10))
}

func TestRenderScrubber(t *testing.T) {
	bounds := models.TimelineBounds{
		Oldest: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Newest: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	mapper := mosaic.NewPositionMapper(bounds)
	const height = 20
	ticks := mosaic.Ticks(mapper, height, 2)
	require.NotEmpty(t, ticks)

	lines := renderScrubber(styles.DefaultTheme, ticks, 0, true, height, styles.ScrubberWidth)
	require.Len(t, lines, height)
	for _, line := range lines {
		require.Equal(t, styles.ScrubberWidth, lipgloss.Width(line))
	}
	require.Contains(t, lines[0], "▶")
	require.Contains(t, lines[0], "2020")

	bottom := renderScrubber(styles.DefaultTheme, ticks, 1, true, height, styles.ScrubberWidth)
	require.Contains(t, bottom[height-1], "▶")
	require.NotContains(t, bottom[0], "▶")

	labeled := 0
	for _, line := range lines {
		if strings.ContainsAny(line, "0123456789") {
			labeled++
		}
	}
	require.Greater(t, labeled, 1)
	require.LessOrEqual(t, labeled, height/2)
}

func TestRenderScrubberDisabled(t *testing.T) {
	lines := renderScrubber(styles.DefaultTheme, nil, 0.5, true, 6, styles.ScrubberWidth)
	require.Len(t, lines, 6)
	for _, line := range lines {
		require.Contains(t, line, "│")
		require.NotContains(t, line, "▶")
	}
}

func TestGridKeepsColumnsAcrossPrepend(t *testing.T) {
	const count = 200
	nav := testutil.NewNavigator(testutil.Series(count, testNewest, testStep)...)
	ctl := mosaic.NewController(nav, mosaic.NewWalker(nav, mosaic.WalkerOptions{}), mosaic.ControllerOptions{
		BatchSize:        7,
		InitialBatchSize: 30,
		EdgeThreshold:    1,
	})
	g := newGridViewport(ctl.Window(), styles.TileHeight)
	g.resize(4, 12)

	apply := func(req mosaic.Request) {
		t.Helper()
		require.True(t, ctl.Complete(g, ctl.Execute(context.Background(), req)))
	}
	start, ok := ctl.Start(testItemTime(100, count))
	require.True(t, ok)
	apply(start)

	// screenCell is where the tile for key sits: its top line relative to
	// the viewport and its column.
	screenCell := func(key string) (int, int) {
		idx := ctl.Window().IndexOf(key)
		require.GreaterOrEqual(t, idx, 0)
		return g.rowOf(idx)*g.rowHeight - g.Offset(), (g.lead + idx) % g.cols
	}

	g.SetOffset(0)
	first, end := g.visibleRange()
	require.Greater(t, end-first, 4)
	keys := []string{ctl.Window().At(first).Key, ctl.Window().At(first + 1).Key, ctl.Window().At(first + 5).Key}
	type cell struct{ line, col int }
	before := make([]cell, len(keys))
	for i, key := range keys {
		before[i].line, before[i].col = screenCell(key)
	}

	edge, ok := ctl.OnWheel(g, -1)
	require.True(t, ok)
	prevLen := ctl.Window().Len()
	apply(edge)
	require.Equal(t, prevLen+7, ctl.Window().Len())

	for i, key := range keys {
		line, col := screenCell(key)
		require.Equal(t, before[i], cell{line, col}, "tile %s moved", key)
	}
	g.SetOffset(0)
	require.Equal(t, -1, g.indexAt(0, 0, 10), "lead cell is blank")
	require.Equal(t, 0, g.indexAt(10, 0, 10))

	apply(ctl.JumpTo(testItemTime(50, count)))
	require.Zero(t, g.lead)
}
