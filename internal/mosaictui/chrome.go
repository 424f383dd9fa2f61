package mosaictui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/mosaic"
	"github.com/tOgg1/mosaic/internal/mosaictui/styles"
)

func (m *Model) renderHeader(theme styles.Theme) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Base.Foreground)).
		Background(lipgloss.Color(theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "mosaic"
	center := m.loadedRange()
	right := m.opts.Source
	line := joinHeader(left, center, right, max(0, m.width-2))
	return style.Width(max(0, m.width)).Render(line)
}

func (m *Model) loadedRange() string {
	window := m.ctl.Window()
	head, ok := window.Head()
	if !ok {
		return ""
	}
	tail, _ := window.Tail()
	return fmt.Sprintf("%s – %s", tail.Timestamp.Format("2006-01-02"), head.Timestamp.Format("2006-01-02"))
}

func (m *Model) renderFooter(theme styles.Theme) string {
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Base.Foreground)).
		Background(lipgloss.Color(theme.Chrome.Footer)).
		Padding(0, 1).
		Width(max(0, m.width))

	var second string
	switch {
	case m.promptActive:
		second = m.prompt.View()
	case m.notice != "":
		second = theme.AccentStyle().Render(m.notice)
	case m.ctl.LastError() != nil:
		second = theme.ErrorStyle().Render("data error: " + m.ctl.LastError().Error())
	default:
		second = theme.MutedStyle().Render("hjkl move  g/G newest/oldest  t jump  r random  Enter details  ? help  q quit")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		status.Render(ansi.Truncate(m.statusLine(), max(0, m.width-2), "…")),
		ansi.Truncate(second, max(0, m.width), "…"),
	)
}

func (m *Model) statusLine() string {
	parts := make([]string, 0, 5)
	if req, loading := m.ctl.Loading(); loading {
		label := "loading " + req.Kind.String()
		if req.Kind == mosaic.RequestEdge {
			label = "loading " + req.Direction.String()
		}
		parts = append(parts, m.spinner.View()+" "+label)
	} else {
		parts = append(parts, m.ctl.State().String())
	}

	window := m.ctl.Window()
	parts = append(parts, humanize.Comma(int64(window.Len()))+" loaded")
	if _, at, ok := m.ctl.Cursor(); ok {
		parts = append(parts, "at "+at.Format("2006-01-02"))
	}
	var ends []string
	if m.ctl.Exhausted(models.DirectionNewer) {
		ends = append(ends, "newest reached")
	}
	if m.ctl.Exhausted(models.DirectionOlder) {
		ends = append(ends, "oldest reached")
	}
	if len(ends) > 0 {
		parts = append(parts, strings.Join(ends, ", "))
	}
	if !m.ctl.Mapper().Enabled() && m.ctl.Window().Len() > 0 {
		parts = append(parts, "timeline unavailable")
	}
	return strings.Join(parts, "  ·  ")
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if center != "" {
			line = left + "  " + center
		}
		return ansi.Truncate(line, width, "…")
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
}
