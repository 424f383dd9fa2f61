package styles

// DefaultTheme is the baseline dark palette for the browser.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	YearPalette: append([]string(nil), YearColorPalette...),
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
		Error:      "203",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		Breadcrumb:   "109",
		SelectedItem: "75",
	},
	Tile: TileColors{
		Border:   "238",
		Selected: "75",
		Date:     "252",
		Key:      "245",
	},
	Scrubber: ScrubberColors{
		Track:  "238",
		Tick:   "243",
		Label:  "250",
		Cursor: "214",
	},
}
