package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// YearColorPalette is a curated ANSI 256 palette cycled across calendar
// years so neighboring years stay distinguishable in the grid.
var YearColorPalette = []string{
	"75", "114", "179", "176", "81", "215", "147", "150",
}

// YearColorMapper resolves deterministic per-year styles and caches them.
type YearColorMapper struct {
	palette []string

	mu    sync.RWMutex
	cache map[int]lipgloss.Style
}

// NewYearColorMapper returns a mapper over palette, or the default palette
// when it is empty.
func NewYearColorMapper(palette []string) *YearColorMapper {
	if len(palette) == 0 {
		palette = YearColorPalette
	}
	return &YearColorMapper{
		palette: append([]string(nil), palette...),
		cache:   make(map[int]lipgloss.Style, 32),
	}
}

// ColorCode returns the ANSI-256 color code for year.
func (m *YearColorMapper) ColorCode(year int) string {
	idx := year % len(m.palette)
	if idx < 0 {
		idx += len(m.palette)
	}
	return m.palette[idx]
}

// Foreground returns a cached bold foreground style for year.
func (m *YearColorMapper) Foreground(year int) lipgloss.Style {
	m.mu.RLock()
	if style, ok := m.cache[year]; ok {
		m.mu.RUnlock()
		return style
	}
	m.mu.RUnlock()

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.ColorCode(year))).Bold(true)

	m.mu.Lock()
	m.cache[year] = style
	m.mu.Unlock()
	return style
}
