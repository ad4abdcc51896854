package widgets

import (
	"fmt"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// BarGauge is a horizontal bar scaled against Max.
//
//	S3    [████████░░░░░░░░░░░░]  60 kg
type BarGauge struct {
	Label      string
	LabelWidth int // left column width; defaults to 5
	Value      float64
	Max        float64
	Suffix     string // printed after the bar, e.g. "60 kg"
	BarWidth   int    // character width of the [████░░░░] portion (excluding brackets)
}

const (
	barFilled = '█' // U+2588
	barEmpty  = '░' // U+2591
)

// barColor colours the bar by how close it is to the maximum.
func barColor(ratio float64) vaxis.Color {
	switch {
	case ratio >= 1:
		return vaxis.IndexColor(5) // magenta for the top value
	case ratio >= 0.6:
		return vaxis.IndexColor(3) // yellow
	default:
		return vaxis.IndexColor(2) // green
	}
}

// Ratio returns Value/Max clamped to [0, 1].
func (bg *BarGauge) Ratio() float64 {
	if bg.Max <= 0 || bg.Value <= 0 {
		return 0
	}
	return min(bg.Value/bg.Max, 1)
}

// Filled returns how many bar cells are filled.
func (bg *BarGauge) Filled() int {
	return int(bg.Ratio() * float64(bg.BarWidth))
}

// Draw renders the bar gauge as a single row.
func (bg *BarGauge) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, bg)

	labelWidth := bg.LabelWidth
	if labelWidth == 0 {
		labelWidth = 5
	}

	col := uint16(0)
	write := func(text string, style vaxis.Style) {
		for _, ch := range ctx.Characters(text) {
			if col >= ctx.Max.Width {
				return
			}
			s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: style})
			col += uint16(ch.Width)
		}
	}

	write(fmt.Sprintf("%-*s ", labelWidth, bg.Label), vaxis.Style{Attribute: vaxis.AttrBold})
	write("[", vaxis.Style{})

	filled := bg.Filled()
	color := barColor(bg.Ratio())
	for i := 0; i < bg.BarWidth; i++ {
		if i < filled {
			write(string(barFilled), vaxis.Style{Foreground: color})
		} else {
			write(string(barEmpty), vaxis.Style{Foreground: vaxis.IndexColor(8)})
		}
	}
	write("]", vaxis.Style{})

	if bg.Suffix != "" {
		write("  "+bg.Suffix, vaxis.Style{Attribute: vaxis.AttrDim})
	}

	return s, nil
}
