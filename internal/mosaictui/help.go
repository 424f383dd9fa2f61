package mosaictui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/mosaic/internal/mosaictui/styles"
)

type helpSection struct {
	title    string
	bindings []key.Binding
}

func (m *Model) renderHelpOverlay(width, height int, theme styles.Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	lines := make([]string, 0, 40)
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Chrome.Breadcrumb)).Render("Help")
	lines = append(lines, head, "")

	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent))
	for _, sec := range helpSections(m.keys) {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(sec.title))
		for _, b := range sec.bindings {
			h := b.Help()
			lines = append(lines, "  "+keyStyle.Render(padRight(h.Key, 12))+"  "+h.Desc)
		}
		lines = append(lines, "")
	}
	lines = append(lines,
		lipgloss.NewStyle().Bold(true).Render("Mouse"),
		"  "+keyStyle.Render(padRight("wheel", 12))+"  scroll, loads more past either end",
		"  "+keyStyle.Render(padRight("click", 12))+"  select tile, or jump via the timeline column",
		"",
	)
	lines = append(lines, theme.MutedStyle().Render("Dismiss: ? or Esc"))

	panelWidth := min(max(50, width-10), 80)
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Base.Border)).
		Padding(1, 2).
		Width(panelWidth)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel.Render(strings.Join(lines, "\n")))
}

func helpSections(k keyMap) []helpSection {
	return []helpSection{
		{title: "Move", bindings: []key.Binding{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown}},
		{title: "Jump", bindings: []key.Binding{k.Newest, k.Oldest, k.JumpTime, k.Random, k.YearBack, k.YearAhead}},
		{title: "View", bindings: []key.Binding{k.Detail, k.Theme, k.Help, k.Close, k.Quit}},
	}
}
