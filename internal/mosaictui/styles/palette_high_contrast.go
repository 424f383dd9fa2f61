package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "sharp",
	YearPalette: []string{"51", "226", "213", "46", "208", "159"},
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
		Error:      "196",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		Breadcrumb:   "195",
		SelectedItem: "51",
	},
	Tile: TileColors{
		Border:   "250",
		Selected: "226",
		Date:     "231",
		Key:      "250",
	},
	Scrubber: ScrubberColors{
		Track:  "248",
		Tick:   "231",
		Label:  "231",
		Cursor: "226",
	},
}
