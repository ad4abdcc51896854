package widgets

import (
	"errors"
	"fmt"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/livefrag/charts"
	"github.com/deevus/livefrag/clock"
	"github.com/deevus/livefrag/dom"
	"github.com/dustin/go-humanize"
)

const (
	defaultFrames        = 6
	defaultFrameInterval = 50 * time.Millisecond
	defaultBarWidth      = 24
)

// ErrDisposed is returned when a disposed chart is rendered or updated.
var ErrDisposed = errors.New("chart disposed")

// TermCharter constructs charts that draw themselves in the terminal. A chart
// is mounted into its element on Render and drawn by whatever view draws the
// element.
type TermCharter struct {
	// Clock drives update transitions. Defaults to clock.Real{}.
	Clock clock.Clock
	// Redraw is called whenever a chart's appearance changes.
	Redraw func()
	// Frames is the number of steps in an animated update. Defaults to 6.
	Frames        int
	FrameInterval time.Duration
	BarWidth      int
}

// Construct implements charts.Charter.
func (tc TermCharter) Construct(el dom.Element, opts charts.Options) (charts.Handle, error) {
	if el == nil {
		return nil, errors.New("no element")
	}
	if err := validate(opts); err != nil {
		return nil, err
	}
	c := &Chart{
		el:            el,
		opts:          opts,
		clock:         tc.Clock,
		redraw:        tc.Redraw,
		frames:        tc.Frames,
		frameInterval: tc.FrameInterval,
		barWidth:      tc.BarWidth,
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.frames <= 0 {
		c.frames = defaultFrames
	}
	if c.frameInterval <= 0 {
		c.frameInterval = defaultFrameInterval
	}
	if c.barWidth <= 0 {
		c.barWidth = defaultBarWidth
	}
	c.shown = c.target()
	return c, nil
}

func validate(opts charts.Options) error {
	switch opts.Kind {
	case charts.KindLine, charts.KindBar:
		return nil
	default:
		return fmt.Errorf("unsupported chart kind %q", opts.Kind)
	}
}

// Chart is a terminal chart bound to one element. It implements
// charts.Handle and vxfw.Widget.
type Chart struct {
	el            dom.Element
	opts          charts.Options
	clock         clock.Clock
	redraw        func()
	frames        int
	frameInterval time.Duration
	barWidth      int

	shown     []float64 // values currently drawn
	from      []float64
	frame     int
	animation clock.Timer

	rendered bool
	disposed bool
	updates  int
}

// Render implements charts.Handle.
func (c *Chart) Render() error {
	if c.disposed {
		return ErrDisposed
	}
	c.el.Mount(c)
	c.rendered = true
	c.requestRedraw()
	return nil
}

// UpdateOptions implements charts.Handle.
func (c *Chart) UpdateOptions(opts charts.Options, redraw, animate bool) error {
	if c.disposed {
		return ErrDisposed
	}
	if err := validate(opts); err != nil {
		return err
	}
	c.opts = opts
	c.updates++
	c.stopAnimation()

	if animate {
		c.from = c.shown
		c.frame = 0
		c.animation = c.clock.Every(c.frameInterval, c.step)
	} else {
		c.shown = c.target()
	}
	if redraw {
		c.requestRedraw()
	}
	return nil
}

// step advances the update transition by one frame.
func (c *Chart) step() {
	if c.disposed {
		return
	}
	c.frame++
	target := c.target()
	if c.frame >= c.frames {
		c.shown = target
		c.stopAnimation()
	} else {
		t := float64(c.frame) / float64(c.frames)
		c.shown = make([]float64, len(target))
		for i, v := range target {
			var prev float64
			if i < len(c.from) {
				prev = c.from[i]
			}
			c.shown[i] = prev + (v-prev)*t
		}
	}
	c.requestRedraw()
}

func (c *Chart) stopAnimation() {
	if c.animation != nil {
		c.animation.Stop()
		c.animation = nil
	}
}

// Dispose implements charts.Handle.
func (c *Chart) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.stopAnimation()
	if c.el.Content() == c {
		c.el.Mount(nil)
	}
}

// Options returns the options the chart was last given.
func (c *Chart) Options() charts.Options {
	return c.opts
}

// Rendered reports whether the chart has been mounted.
func (c *Chart) Rendered() bool {
	return c.rendered
}

// Disposed reports whether Dispose has been called.
func (c *Chart) Disposed() bool {
	return c.disposed
}

// Animating reports whether an update transition is in progress.
func (c *Chart) Animating() bool {
	return c.animation != nil
}

// Updates returns how many times the chart was updated in place.
func (c *Chart) Updates() int {
	return c.updates
}

// Values returns the values currently drawn.
func (c *Chart) Values() []float64 {
	return c.shown
}

func (c *Chart) requestRedraw() {
	if c.redraw != nil {
		c.redraw()
	}
}

// target returns the values of the first series.
func (c *Chart) target() []float64 {
	if len(c.opts.Series) == 0 {
		return nil
	}
	return append([]float64(nil), c.opts.Series[0].Data...)
}

// Height returns the number of rows the chart occupies.
func (c *Chart) Height() int {
	if c.opts.Kind == charts.KindBar {
		return 1 + len(c.shown)
	}
	return 2
}

func (c *Chart) label(v float64) string {
	s := humanize.CommafWithDigits(v, 1)
	if c.opts.Unit != "" {
		s += " " + c.opts.Unit
	}
	return s
}

// Draw renders the title row followed by the chart body.
func (c *Chart) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	height := min(uint16(c.Height()), ctx.Max.Height)
	s := vxfw.NewSurface(ctx.Max.Width, height, c)
	if height == 0 {
		return s, nil
	}

	title := c.opts.Title
	if len(c.opts.Series) > 0 && c.opts.Series[0].Name != "" {
		title += " · " + c.opts.Series[0].Name
	}
	writeText(&s, 0, 0, int(ctx.Max.Width), title, vaxis.Style{Attribute: vaxis.AttrBold}, false)

	rowCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1})
	switch c.opts.Kind {
	case charts.KindLine:
		if height < 2 {
			return s, nil
		}
		n := len(c.shown)
		sl := &Sparkline{Values: c.shown}
		surf, err := sl.Draw(ctx.WithMax(vxfw.Size{Width: min(uint16(n), ctx.Max.Width), Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 1, surf)
		if n > 0 && int(ctx.Max.Width) > n+1 {
			writeText(&s, uint16(n+1), 1, int(ctx.Max.Width)-n-1, c.label(c.shown[n-1]), vaxis.Style{Attribute: vaxis.AttrDim}, false)
		}
	case charts.KindBar:
		maxV := c.opts.Max()
		for i, v := range c.shown {
			row := uint16(i + 1)
			if row >= height {
				break
			}
			label := fmt.Sprintf("#%d", i+1)
			if i < len(c.opts.Categories) {
				label = c.opts.Categories[i]
			}
			bg := &BarGauge{Label: label, Value: v, Max: maxV, Suffix: c.label(v), BarWidth: c.barWidth}
			surf, err := bg.Draw(rowCtx)
			if err != nil {
				return vxfw.Surface{}, err
			}
			s.AddChild(0, int(row), surf)
		}
	}
	return s, nil
}
