package styles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeGrid(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		cols     int
		scrubber int
	}{
		{name: "zero", width: 0, cols: 1, scrubber: 0},
		{name: "too narrow for scrubber", width: 20, cols: 1, scrubber: 0},
		{name: "one column with scrubber", width: 30, cols: 1, scrubber: ScrubberWidth},
		{name: "standard terminal", width: 80, cols: 4, scrubber: ScrubberWidth},
		{name: "wide terminal capped", width: 400, cols: maxColumns, scrubber: ScrubberWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ComputeGrid(tt.width)
			require.Equal(t, tt.cols, g.Columns)
			require.Equal(t, tt.scrubber, g.Scrubber)
			if tt.width > 0 {
				used := g.Columns * g.TileWidth
				if g.Scrubber > 0 {
					used += g.Scrubber + LayoutGap
				}
				require.LessOrEqual(t, used, tt.width)
				require.LessOrEqual(t, g.TileWidth, maxTileWidth)
			}
		})
	}
}

func TestLookupFallsBackToDefault(t *testing.T) {
	require.Equal(t, "high-contrast", Lookup("high-contrast").Name)
	require.Equal(t, "default", Lookup("neon").Name)
	require.Equal(t, "high-contrast", Next("default"))
	require.Equal(t, "default", Next("high-contrast"))
}

func TestYearColorMapperIsStable(t *testing.T) {
	m := NewYearColorMapper(nil)
	require.Equal(t, m.ColorCode(2016), m.ColorCode(2016+len(YearColorPalette)))
	require.NotEqual(t, m.ColorCode(2016), m.ColorCode(2017))
	require.Equal(t, m.Foreground(2020).Render("x"), m.Foreground(2020).Render("x"))

	custom := NewYearColorMapper([]string{"1"})
	require.Equal(t, "1", custom.ColorCode(-3))
}
