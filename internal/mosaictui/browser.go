package mosaictui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/mosaic"
	"github.com/tOgg1/mosaic/internal/mosaictui/styles"
)

type loadedMsg struct {
	result mosaic.Result
}

// loadCmd runs req off the event loop. Only the request value crosses into
// the command goroutine.
func (m *Model) loadCmd(req mosaic.Request) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	load := func() tea.Msg {
		return loadedMsg{result: ctl.Execute(ctx, req)}
	}
	if m.spinning {
		return load
	}
	m.spinning = true
	return tea.Batch(load, m.spinner.Tick)
}

func (m *Model) maybeLoad(req mosaic.Request, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	return m.loadCmd(req)
}

func (m *Model) applyLoaded(res mosaic.Result) tea.Cmd {
	prevKey := m.selectedKey
	if !m.ctl.Complete(m.grid, res) {
		return nil
	}
	window := m.ctl.Window()

	if res.Request.Kind == mosaic.RequestEdge {
		if idx := window.IndexOf(prevKey); idx >= 0 {
			m.selected = idx
		}
	} else {
		m.selected = 0
		if !res.Target.IsZero() {
			m.selected = max(window.NearestIndex(res.Target), 0)
		}
	}
	m.syncSelection()
	if window.Len() > 0 {
		m.grid.ensureVisible(m.selected)
	}

	// Keep filling while the viewport sits near an edge. Failed loads are
	// not retried here; the next scroll or wheel event does that.
	if res.Err != nil {
		return nil
	}
	return m.afterScroll()
}

// afterScroll feeds the current viewport position to the controller.
func (m *Model) afterScroll() tea.Cmd {
	return m.maybeLoad(m.ctl.OnScroll(m.grid))
}

func (m *Model) syncSelection() {
	window := m.ctl.Window()
	if window.Len() == 0 {
		m.selected = 0
		m.selectedKey = ""
		return
	}
	m.selected = clampInt(m.selected, 0, window.Len()-1)
	item := window.At(m.selected)
	m.selectedKey = item.Key
	m.opts.State.SetAnchor(item.Timestamp, item.Key)
}

func (m *Model) selectedItem() (models.ChronoItem, bool) {
	window := m.ctl.Window()
	if m.selected < 0 || m.selected >= window.Len() {
		return models.ChronoItem{}, false
	}
	return window.At(m.selected), true
}

// moveSelection moves by delta items. Pushing past either end of the window
// is treated like a wheel past the edge.
func (m *Model) moveSelection(delta int) tea.Cmd {
	n := m.ctl.Window().Len()
	if n == 0 || delta == 0 {
		return nil
	}
	next := m.selected + delta
	switch {
	case next < 0 && m.selected == 0:
		m.grid.SetOffset(0)
		return m.maybeLoad(m.ctl.OnWheel(m.grid, -1))
	case next >= n && m.selected == n-1:
		m.grid.SetOffset(m.grid.Extent())
		return m.maybeLoad(m.ctl.OnWheel(m.grid, 1))
	}
	m.selected = clampInt(next, 0, n-1)
	m.syncSelection()
	m.grid.ensureVisible(m.selected)
	return m.afterScroll()
}

func (m *Model) pageItems() int {
	rows := max(1, m.grid.Size()/styles.TileHeight)
	return rows * m.grid.cols
}

func (m *Model) jumpTo(at time.Time, source string) tea.Cmd {
	m.opts.State.RecordJump(at, source)
	m.showDetail = false
	return m.loadCmd(m.ctl.JumpTo(at))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.promptActive {
		return m.handlePromptKey(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if m.showHelp || m.showDetail {
		switch {
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return nil
		case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Detail):
			m.showHelp = false
			m.showDetail = false
			return nil
		}
	}
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Up):
		return m.moveSelection(-m.grid.cols)
	case key.Matches(msg, m.keys.Down):
		return m.moveSelection(m.grid.cols)
	case key.Matches(msg, m.keys.Left):
		return m.moveSelection(-1)
	case key.Matches(msg, m.keys.Right):
		return m.moveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		return m.moveSelection(-m.pageItems())
	case key.Matches(msg, m.keys.PageDown):
		return m.moveSelection(m.pageItems())
	case key.Matches(msg, m.keys.Newest):
		m.showDetail = false
		return m.loadCmd(m.ctl.JumpNewest())
	case key.Matches(msg, m.keys.Oldest):
		m.showDetail = false
		return m.maybeLoad(m.ctl.JumpOldest())
	case key.Matches(msg, m.keys.Random):
		m.showDetail = false
		return m.loadCmd(m.ctl.JumpRandom())
	case key.Matches(msg, m.keys.YearBack), key.Matches(msg, m.keys.YearAhead):
		item, ok := m.selectedItem()
		if !ok {
			return nil
		}
		years := -1
		if key.Matches(msg, m.keys.YearAhead) {
			years = 1
		}
		return m.jumpTo(item.Timestamp.AddDate(years, 0, 0), "year-step")
	case key.Matches(msg, m.keys.JumpTime):
		m.promptActive = true
		m.prompt.Reset()
		return m.prompt.Focus()
	case key.Matches(msg, m.keys.Detail):
		if _, ok := m.selectedItem(); ok {
			m.showDetail = true
		}
		return nil
	case key.Matches(msg, m.keys.Theme):
		m.theme = styles.Next(m.theme)
		m.years = styles.NewYearColorMapper(styles.Lookup(m.theme).YearPalette)
		m.opts.State.SetTheme(m.theme)
		return nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	}
	return nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.promptActive = false
		m.prompt.Blur()
		return nil
	case tea.KeyEnter:
		raw := m.prompt.Value()
		m.promptActive = false
		m.prompt.Blur()
		at, ok := parseJumpTime(raw, time.Now().UTC())
		if !ok {
			m.notice = "unrecognized time: " + raw
			return nil
		}
		return m.jumpTo(at, "prompt")
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || m.showHelp || m.promptActive {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m.wheel(-1)
	case tea.MouseButtonWheelDown:
		return m.wheel(1)
	case tea.MouseButtonLeft:
		return m.click(msg.X, msg.Y)
	}
	return nil
}

// wheel scrolls by one tile row. At either end the raw wheel delta goes to
// the controller, since the viewport itself cannot move.
func (m *Model) wheel(delta int) tea.Cmd {
	if m.showDetail {
		return nil
	}
	g := m.grid
	if (delta < 0 && g.Offset() <= 0) || (delta > 0 && g.Offset()+g.Size() >= g.Extent()) {
		return m.maybeLoad(m.ctl.OnWheel(g, delta))
	}
	g.SetOffset(g.Offset() + delta*styles.TileHeight)

	first, end := g.visibleRange()
	if end > first && (m.selected < first || m.selected >= end) {
		m.selected = clampInt(m.selected, first, end-1)
		m.syncSelection()
	}
	return m.afterScroll()
}

func (m *Model) click(x, y int) tea.Cmd {
	if m.showDetail {
		m.showDetail = false
		return nil
	}
	row := y - headerLines
	height := m.bodyHeight()
	if row < 0 || row >= height {
		return nil
	}

	if m.layout.Scrubber > 0 && x >= m.width-m.layout.Scrubber {
		ratio := 0.0
		if height > 1 {
			ratio = float64(row) / float64(height-1)
		}
		req, ok := m.ctl.JumpToRatio(ratio)
		if !ok {
			m.notice = "timeline unavailable"
			return nil
		}
		m.opts.State.RecordJump(req.Target, "scrubber")
		return m.loadCmd(req)
	}

	if idx := m.grid.indexAt(x, row, m.layout.TileWidth); idx >= 0 {
		m.selected = idx
		m.syncSelection()
		m.grid.ensureVisible(idx)
		return m.afterScroll()
	}
	return nil
}
