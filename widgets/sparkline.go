package widgets

import (
	"math"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Block characters for sparkline rendering (8 levels).
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a 1-row line chart using block characters. Values are
// scaled between zero and the largest value so that rising totals read as
// growth rather than being stretched to fill the row.
type Sparkline struct {
	Values []float64
	Style  vaxis.Style
}

// Draw renders the most recent values that fit the available width.
func (sl *Sparkline) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, sl)

	vals := sl.Values
	if len(vals) == 0 {
		return s, nil
	}
	width := int(ctx.Max.Width)
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	maxV := 0.0
	for _, v := range vals {
		maxV = math.Max(maxV, v)
	}

	style := sl.Style
	if style == (vaxis.Style{}) {
		style = vaxis.Style{Foreground: vaxis.IndexColor(6)} // cyan
	}

	col := uint16(0)
	for _, v := range vals {
		for _, c := range ctx.Characters(string(sparkBlocks[sparkLevel(v, maxV)])) {
			s.WriteCell(col, 0, vaxis.Cell{Character: c, Style: style})
			col += uint16(c.Width)
		}
	}

	return s, nil
}

// sparkLevel maps v onto one of the eight block heights.
func sparkLevel(v, maxV float64) int {
	if maxV <= 0 || v <= 0 {
		return 0
	}
	level := int(math.Round(v / maxV * 7))
	return min(level, 7)
}
