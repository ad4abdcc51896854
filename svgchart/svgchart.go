// Package svgchart renders charts to SVG files, one file per element.
package svgchart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ajstarks/svgo"
	"github.com/deevus/livefrag/charts"
	"github.com/deevus/livefrag/dom"
	"github.com/dustin/go-humanize"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 320

	margin   = 40
	titleGap = 28
)

const (
	colorBackdrop = "#0f172a"
	colorAxis     = "#475569"
	colorText     = "#e2e8f0"
	colorSubtle   = "#94a3b8"
	colorSeries   = "#22d3ee"
	colorTop      = "#e879f9"
)

// ErrDisposed is returned when a disposed chart is rendered or updated.
var ErrDisposed = errors.New("chart disposed")

// Charter writes each chart to <Dir>/<element id>.svg.
type Charter struct {
	Dir    string
	Width  int
	Height int
}

// Construct implements charts.Charter.
func (c Charter) Construct(el dom.Element, opts charts.Options) (charts.Handle, error) {
	if el == nil {
		return nil, errors.New("no element")
	}
	if el.ID() == "" {
		return nil, errors.New("element has no id")
	}
	if opts.Kind != charts.KindLine && opts.Kind != charts.KindBar {
		return nil, fmt.Errorf("unsupported chart kind %q", opts.Kind)
	}
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return &Chart{
		el:     el,
		opts:   opts,
		path:   filepath.Join(c.Dir, el.ID()+".svg"),
		width:  w,
		height: h,
	}, nil
}

// Chart is one SVG file bound to an element.
type Chart struct {
	el            dom.Element
	opts          charts.Options
	path          string
	width, height int
	writes        int
	disposed      bool
}

// Path returns the file the chart is written to.
func (c *Chart) Path() string {
	return c.path
}

// Writes returns how many times the file has been written.
func (c *Chart) Writes() int {
	return c.writes
}

// Render writes the file and mounts its path into the element.
func (c *Chart) Render() error {
	if c.disposed {
		return ErrDisposed
	}
	if err := c.write(); err != nil {
		return err
	}
	c.el.Mount(c.path)
	return nil
}

// UpdateOptions rewrites the file when redraw is set. SVG output is static,
// so animate has no effect.
func (c *Chart) UpdateOptions(opts charts.Options, redraw, animate bool) error {
	if c.disposed {
		return ErrDisposed
	}
	c.opts = opts
	if !redraw {
		return nil
	}
	return c.write()
}

// Dispose removes the file.
func (c *Chart) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	os.Remove(c.path)
}

func (c *Chart) write() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating chart dir: %w", err)
	}
	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Write(f, c.opts, c.width, c.height); err != nil {
		return err
	}
	c.writes++
	return nil
}

// Write renders opts as an SVG document of the given size.
func Write(w io.Writer, opts charts.Options, width, height int) error {
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+colorBackdrop)
	canvas.Text(margin, margin/2+8, opts.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", colorText))

	left, top := margin, margin+titleGap/2
	plotW, plotH := width-2*margin, height-top-margin
	canvas.Line(left, top+plotH, left+plotW, top+plotH, "stroke:"+colorAxis)
	canvas.Line(left, top, left, top+plotH, "stroke:"+colorAxis)

	var data []float64
	if len(opts.Series) > 0 {
		data = opts.Series[0].Data
	}
	maxV := opts.Max()
	canvas.Text(left-4, top+8, label(maxV, opts.Unit), fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", colorSubtle))

	if len(data) == 0 || plotW <= 0 || plotH <= 0 {
		canvas.End()
		return nil
	}
	scale := func(v float64) int {
		if maxV <= 0 || v <= 0 {
			return 0
		}
		return int(v / maxV * float64(plotH))
	}

	switch opts.Kind {
	case charts.KindBar:
		slot := plotW / len(data)
		barW := max(slot*2/3, 1)
		for i, v := range data {
			h := scale(v)
			x := left + i*slot + (slot-barW)/2
			fill := colorSeries
			if v == maxV {
				fill = colorTop
			}
			canvas.Rect(x, top+plotH-h, barW, h, "fill:"+fill)
			name := fmt.Sprintf("#%d", i+1)
			if i < len(opts.Categories) {
				name = opts.Categories[i]
			}
			canvas.Text(x+barW/2, top+plotH+14, name, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", colorSubtle))
		}
	case charts.KindLine:
		xs := make([]int, len(data))
		ys := make([]int, len(data))
		step := 0
		if len(data) > 1 {
			step = plotW / (len(data) - 1)
		}
		for i, v := range data {
			xs[i] = left + i*step
			ys[i] = top + plotH - scale(v)
		}
		canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", colorSeries))
		for i := range xs {
			canvas.Circle(xs[i], ys[i], 3, "fill:"+colorSeries)
		}
		last := len(data) - 1
		canvas.Text(xs[last], ys[last]-8, label(data[last], opts.Unit), fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", colorText))
	}

	canvas.End()
	return nil
}

func label(v float64, unit string) string {
	s := humanize.CommafWithDigits(v, 1)
	if unit != "" {
		s += " " + unit
	}
	return s
}
