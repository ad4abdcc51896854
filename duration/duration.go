// Package duration renders a live elapsed-time counter into a page element.
package duration

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/deevus/livefrag/clock"
	"github.com/deevus/livefrag/dom"
)

// StartAttr is the element attribute holding the start time in epoch
// milliseconds.
const StartAttr = "data-start"

// TickPeriod is how often the counter text is rewritten.
const TickPeriod = time.Second

// Format renders elapsed time as "01h 02m 03s". The hours and minutes
// segments are omitted when zero; seconds are always shown. Negative
// durations render as "00s".
func Format(elapsed time.Duration) string {
	secs := int64(elapsed / time.Second)
	if secs < 0 {
		secs = 0
	}
	hours := secs / 3600
	secs -= hours * 3600
	minutes := secs / 60
	secs -= minutes * 60

	out := ""
	if hours > 0 {
		out += fmt.Sprintf("%02dh ", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%02dm ", minutes)
	}
	return out + fmt.Sprintf("%02ds", secs)
}

// CounterParams holds configuration for creating a Counter.
type CounterParams struct {
	Bus    dom.Bus
	Clock  clock.Clock
	Logger *log.Logger
}

// Counter starts one ticking timer per initialised element and stops it when
// the element is removed.
type Counter struct {
	bus    dom.Bus
	clock  clock.Clock
	logger *log.Logger
	active int
}

// NewCounter creates a Counter.
func NewCounter(p CounterParams) *Counter {
	c := p.Clock
	if c == nil {
		c = clock.Real{}
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Counter{bus: p.Bus, clock: c, logger: logger}
}

// Init binds a counter to the element at selector on the next attach signal.
func (c *Counter) Init(selector string) *dom.Once {
	return dom.NextAttach(c.bus, func() {
		c.start(selector)
	})
}

func (c *Counter) start(selector string) {
	el := c.bus.Query(selector)
	if el == nil {
		return
	}
	raw, ok := el.Attr(StartAttr)
	if !ok {
		c.logger.Printf("[duration] %s has no %s attribute", selector, StartAttr)
		return
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.logger.Printf("[duration] %s: invalid %s %q: %v", selector, StartAttr, raw, err)
		return
	}
	start := time.UnixMilli(ms)

	timer := c.clock.Every(TickPeriod, func() {
		el.SetText(Format(c.clock.Now().Sub(start)))
	})
	c.active++
	el.OnRemove(func() {
		if timer.Stop() {
			c.active--
		}
	})
}

// Active returns the number of running counters.
func (c *Counter) Active() int {
	return c.active
}
