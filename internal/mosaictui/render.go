package mosaictui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/mosaic"
	"github.com/tOgg1/mosaic/internal/mosaictui/styles"
)

const tileDateLayout = "2006-01-02 15:04"

func (m *Model) renderBody(theme styles.Theme) string {
	height := m.bodyHeight()
	if height <= 0 {
		return ""
	}
	gridWidth := m.width
	if m.layout.Scrubber > 0 {
		gridWidth = m.width - m.layout.Scrubber - styles.LayoutGap
	}

	var gridLines []string
	if m.ctl.Window().Len() == 0 {
		gridLines = strings.Split(lipgloss.Place(gridWidth, height, lipgloss.Center, lipgloss.Center, m.emptyMessage(theme)), "\n")
	} else {
		gridLines = m.renderGrid(theme, height)
	}
	if m.layout.Scrubber == 0 {
		return strings.Join(padLines(gridLines, gridWidth, height), "\n")
	}

	ratio, _, cursorOK := m.ctl.Cursor()
	scrubber := renderScrubber(theme, m.ctl.Ticks(height, m.opts.LabelMinGap), ratio, cursorOK, height, m.layout.Scrubber)
	gridLines = padLines(gridLines, gridWidth, height)
	gap := strings.Repeat(" ", styles.LayoutGap)
	out := make([]string, height)
	for i := range out {
		out[i] = gridLines[i] + gap + scrubber[i]
	}
	return strings.Join(out, "\n")
}

func (m *Model) emptyMessage(theme styles.Theme) string {
	if _, loading := m.ctl.Loading(); loading {
		return m.spinner.View() + " loading"
	}
	if m.ctl.State() == mosaic.StateEmpty {
		return ""
	}
	return theme.MutedStyle().Render("no media here")
}

// renderGrid renders the rows intersecting the viewport and cuts the
// partial rows at the top and bottom.
func (m *Model) renderGrid(theme styles.Theme, height int) []string {
	g := m.grid
	window := m.ctl.Window()
	firstRow, endRow := g.visibleRows()

	blank := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", m.layout.TileWidth)+"\n", g.rowHeight), "\n")
	rows := make([]string, 0, endRow-firstRow)
	for row := firstRow; row < endRow; row++ {
		tiles := make([]string, 0, g.cols)
		for col := 0; col < g.cols; col++ {
			i := g.cellIndex(row, col)
			if i >= window.Len() {
				break
			}
			if i < 0 {
				tiles = append(tiles, blank)
				continue
			}
			tiles = append(tiles, renderTile(theme, m.years, window.At(i), m.layout.TileWidth, i == m.selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	lines := strings.Split(strings.Join(rows, "\n"), "\n")

	skip := g.Offset() - firstRow*g.rowHeight
	if skip > 0 && skip < len(lines) {
		lines = lines[skip:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}

func renderTile(theme styles.Theme, years *styles.YearColorMapper, item models.ChronoItem, width int, selected bool) string {
	inner := max(0, width-2)
	date := years.Foreground(item.Timestamp.Year()).Render(ansi.Truncate(item.Timestamp.Format(tileDateLayout), inner, ""))
	label := item.Key
	if item.ContentRef != "" && item.ContentRef != item.Key {
		label = item.ContentRef
	}
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Tile.Key))
	if selected {
		keyStyle = keyStyle.Foreground(lipgloss.Color(theme.Tile.Selected)).Bold(true)
	}
	body := date + "\n" + keyStyle.Render(ansi.Truncate(label, inner, "…"))
	return styles.TileStyle(theme, width, selected).Render(body)
}

// renderScrubber draws the timeline column: a track, one mark per year with
// decimated labels, and the cursor. It always returns height lines of
// exactly width cells.
func renderScrubber(theme styles.Theme, ticks []mosaic.Tick, cursorRatio float64, cursorOK bool, height, width int) []string {
	if height <= 0 || width <= 0 {
		return nil
	}
	track := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Scrubber.Track))
	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Scrubber.Tick))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Scrubber.Label))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Scrubber.Cursor)).Bold(true)

	marks := make([]string, height)
	labels := make([]string, height)
	for i := range marks {
		marks[i] = track.Render("│")
	}
	for _, tick := range ticks {
		if tick.Row < 0 || tick.Row >= height {
			continue
		}
		marks[tick.Row] = tickStyle.Render("├")
		if tick.Labeled {
			labels[tick.Row] = labelStyle.Render(fmt.Sprintf("%d", tick.Year))
		}
	}
	if cursorOK && len(ticks) > 0 {
		row := int(math.Round(cursorRatio * float64(height-1)))
		row = clampInt(row, 0, height-1)
		marks[row] = cursorStyle.Render("▶")
		if labels[row] == "" {
			labels[row] = cursorStyle.Render("•")
		} else {
			labels[row] = cursorStyle.Render(ansi.Strip(labels[row]))
		}
	}

	out := make([]string, height)
	for i := range out {
		line := marks[i] + " " + labels[i]
		out[i] = padRight(ansi.Truncate(line, width, ""), width)
	}
	return out
}

func (m *Model) renderDetailOverlay(width, height int, theme styles.Theme) string {
	item, ok := m.selectedItem()
	if !ok || width <= 0 || height <= 0 {
		return ""
	}
	window := m.ctl.Window()
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent))
	field := func(name, value string) string {
		return keyStyle.Render(fmt.Sprintf("%-9s", name)) + " " + value
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Chrome.Breadcrumb)).Render("Item"),
		"",
		field("key", item.Key),
		field("taken", fmt.Sprintf("%s (%s)", item.Timestamp.Format(time.RFC1123), humanize.Time(item.Timestamp))),
	}
	if item.ContentRef != "" {
		lines = append(lines, field("content", item.ContentRef))
		if m.opts.ContentURL != nil {
			if u := m.opts.ContentURL(item.ContentRef); u != "" {
				lines = append(lines, field("url", u))
			}
		}
	}
	lines = append(lines, field("position", fmt.Sprintf("%s of %s loaded", humanize.Comma(int64(m.selected+1)), humanize.Comma(int64(window.Len())))))
	if bounds := m.ctl.Bounds(); bounds.Valid() {
		lines = append(lines, field("timeline", fmt.Sprintf("%s to %s",
			bounds.Oldest.Format("2006-01-02"), bounds.Newest.Format("2006-01-02"))))
	}
	lines = append(lines, "", theme.MutedStyle().Render("Dismiss: Enter or Esc"))

	panelWidth := min(max(40, width-10), 96)
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, panelWidth-6, "…")
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Base.Border)).
		Padding(1, 2).
		Width(panelWidth)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel.Render(strings.Join(lines, "\n")))
}

func padLines(lines []string, width, height int) []string {
	out := make([]string, height)
	for i := range out {
		line := ""
		if i < len(lines) {
			line = ansi.Truncate(lines[i], width, "")
		}
		out[i] = padRight(line, width)
	}
	return out
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
