package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TableColumn defines a column in a Table.
type TableColumn struct {
	Width      int  // fixed character width; 0 sizes the column to its widest cell
	AlignRight bool // right-align text within the column
	Style      vaxis.Style
}

// Table renders rows of text in aligned columns. It is mounted into page
// nodes that list workout sets.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
	Header  []string // optional header row rendered with AttrDim
	Gap     int      // spaces between columns (default 1)
}

// Height returns the number of rows the table occupies.
func (t *Table) Height() int {
	if t.Header != nil {
		return len(t.Rows) + 1
	}
	return len(t.Rows)
}

func textWidth(s string) int {
	w := 0
	for _, ch := range vaxis.Characters(s) {
		w += ch.Width
	}
	return w
}

// widths resolves the width of every column.
func (t *Table) widths() []int {
	out := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		if c.Width > 0 {
			out[i] = c.Width
			continue
		}
		if i < len(t.Header) {
			out[i] = textWidth(t.Header[i])
		}
		for _, row := range t.Rows {
			if i < len(row) {
				out[i] = max(out[i], textWidth(row[i]))
			}
		}
	}
	return out
}

// writeText writes s into surf at (col, row), truncated to maxWidth. If
// right-aligned, text is padded on the left.
func writeText(surf *vxfw.Surface, col, row uint16, maxWidth int, s string, style vaxis.Style, alignRight bool) {
	chars := vaxis.Characters(s)

	pos := 0
	if w := textWidth(s); alignRight && w < maxWidth {
		pos = maxWidth - w
	}
	for _, ch := range chars {
		if pos+ch.Width > maxWidth {
			break
		}
		surf.WriteCell(col+uint16(pos), row, vaxis.Cell{Character: ch, Style: style})
		pos += ch.Width
	}
}

// Draw renders the table header (if set) and all rows that fit.
func (t *Table) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	gap := t.Gap
	if gap == 0 {
		gap = 1
	}
	widths := t.widths()

	height := min(uint16(t.Height()), ctx.Max.Height)
	s := vxfw.NewSurface(ctx.Max.Width, height, t)

	drawRow := func(row uint16, cells []string, header bool) {
		col := uint16(0)
		for i, c := range t.Columns {
			if col >= ctx.Max.Width {
				break
			}
			text := ""
			if i < len(cells) {
				text = cells[i]
			}
			style := c.Style
			if header {
				style = vaxis.Style{Attribute: vaxis.AttrDim}
			}
			w := min(widths[i], int(ctx.Max.Width-col))
			writeText(&s, col, row, w, text, style, c.AlignRight)
			col += uint16(widths[i] + gap)
		}
	}

	row := uint16(0)
	if t.Header != nil && row < height {
		drawRow(row, t.Header, true)
		row++
	}
	for _, cells := range t.Rows {
		if row >= height {
			break
		}
		drawRow(row, cells, false)
		row++
	}

	return s, nil
}
