package styles

import "github.com/charmbracelet/lipgloss"

const (
	// ScrubberWidth is the width of the timeline column on the right.
	ScrubberWidth = 8

	// TileHeight is the height of one grid row including its border.
	TileHeight = 4

	// LayoutGap is the space between the grid and the scrubber.
	LayoutGap = 1
)

const (
	minTileWidth = 16
	maxTileWidth = 28
	maxColumns   = 8
)

// Grid describes how tiles are laid out in the content area.
type Grid struct {
	Columns   int
	TileWidth int
	// Scrubber is zero when the terminal is too narrow to show it.
	Scrubber int
}

// ComputeGrid returns the grid for a content area totalWidth cells wide.
// The scrubber is dropped before the grid shrinks below one tile.
func ComputeGrid(totalWidth int) Grid {
	if totalWidth <= 0 {
		return Grid{Columns: 1}
	}

	scrubber := ScrubberWidth
	avail := totalWidth - scrubber - LayoutGap
	if avail < minTileWidth {
		scrubber = 0
		avail = totalWidth
	}

	cols := clampInt(avail/minTileWidth, 1, maxColumns)
	width := minInt(avail/cols, maxTileWidth)
	if width < 1 {
		width = 1
	}
	return Grid{Columns: cols, TileWidth: width, Scrubber: scrubber}
}

// TileStyle returns the bordered style for a tile.
func TileStyle(theme Theme, width int, selected bool) lipgloss.Style {
	border := theme.Tile.Border
	if selected {
		border = theme.Tile.Selected
	}
	inner := width - 2
	if inner < 0 {
		inner = 0
	}
	return lipgloss.NewStyle().
		BorderStyle(borderStyle(theme)).
		BorderForeground(lipgloss.Color(border)).
		Width(inner).
		Height(TileHeight - 2)
}

func borderStyle(theme Theme) lipgloss.Border {
	switch theme.BorderStyle {
	case "double":
		return lipgloss.DoubleBorder()
	case "sharp":
		return lipgloss.NormalBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
