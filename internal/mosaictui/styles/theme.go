// Package styles holds the browser's color themes and layout math.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
	Error      string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	Breadcrumb   string
	SelectedItem string
}

// TileColors defines colors for media tiles in the grid.
type TileColors struct {
	Border   string
	Selected string
	Date     string
	Key      string
}

// ScrubberColors defines colors for the timeline scrubber column.
type ScrubberColors struct {
	Track  string
	Tick   string
	Label  string
	Cursor string
}

// Theme defines the browser style tokens.
type Theme struct {
	Name        string
	BorderStyle string   // "rounded", "sharp", "double", "hidden"
	YearPalette []string // ANSI-256 codes cycled per calendar year

	Base     BaseColors
	Chrome   ChromeColors
	Tile     TileColors
	Scrubber ScrubberColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named theme, falling back to the default.
func Lookup(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

// Next returns the name of the theme after name, for cycling in the UI.
func Next(name string) string {
	if name == DefaultTheme.Name {
		return HighContrastTheme.Name
	}
	return DefaultTheme.Name
}

// BaseStyle is the foreground/background pair for content areas.
func (t Theme) BaseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Foreground)).Background(lipgloss.Color(t.Base.Background))
}

// MutedStyle renders secondary text.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// AccentStyle renders highlighted text.
func (t Theme) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

// ErrorStyle renders the status line error.
func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Error))
}
