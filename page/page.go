// Package page assembles the workout page: it owns the document, the chart
// manager and the duration counter, and swaps workout fragments in and out.
//
// A Page must only be used from the host's event loop.
package page

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/deevus/livefrag/charts"
	"github.com/deevus/livefrag/clock"
	"github.com/deevus/livefrag/dom"
	"github.com/deevus/livefrag/duration"
	"github.com/deevus/livefrag/widgets"
	"github.com/dustin/go-humanize"
)

const (
	HeaderID   = "header"
	SlotID     = "workout"
	TitleID    = "workout-title"
	DurationID = "workout-duration"
	ChartID    = "workout-chart"
	SetsID     = "workout-sets"

	DurationSelector = "#" + DurationID
	ChartSelector    = "#" + ChartID
)

// ErrNoWorkout is returned by AddSet before a workout has been started.
var ErrNoWorkout = errors.New("no workout in progress")

// Set is one logged set.
type Set struct {
	Reps   int
	Weight float64
}

// Volume returns reps × weight.
func (s Set) Volume() float64 {
	return float64(s.Reps) * s.Weight
}

// Workout is the data rendered into the workout fragment.
type Workout struct {
	Name  string
	Start time.Time
	Sets  []Set
}

// Volume returns the total volume of all sets.
func (w Workout) Volume() float64 {
	var v float64
	for _, s := range w.Sets {
		v += s.Volume()
	}
	return v
}

// Params holds configuration for creating a Page.
type Params struct {
	// Document defaults to a new empty document.
	Document *dom.Document
	Charter  charts.Charter
	Clock    clock.Clock
	Logger   *log.Logger
	OnError  func(error)
}

// Page is the workout page.
type Page struct {
	doc      *dom.Document
	manager  *charts.Manager
	counter  *duration.Counter
	logger   *log.Logger
	workout  *Workout
	fragment []*dom.Node
	chart    charts.Handle
	reloads  int
}

// New creates a Page and mounts its initial content.
func New(p Params) *Page {
	doc := p.Document
	if doc == nil {
		doc = dom.NewDocument()
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	pg := &Page{
		doc: doc,
		manager: charts.NewManager(charts.ManagerParams{
			Bus:     doc,
			Charter: p.Charter,
			Logger:  logger,
			OnError: p.OnError,
		}),
		counter: duration.NewCounter(duration.CounterParams{
			Bus:    doc,
			Clock:  p.Clock,
			Logger: logger,
		}),
		logger: logger,
	}
	pg.mount()
	return pg
}

// Document returns the page's document.
func (p *Page) Document() *dom.Document {
	return p.doc
}

// Charts returns the chart manager.
func (p *Page) Charts() *charts.Manager {
	return p.manager
}

// Counters returns the duration counter.
func (p *Page) Counters() *duration.Counter {
	return p.counter
}

// Chart returns the workout chart while it is loaded.
func (p *Page) Chart() (charts.Handle, bool) {
	return p.chart, p.chart != nil
}

// Workout returns the current workout.
func (p *Page) Workout() (Workout, bool) {
	if p.workout == nil {
		return Workout{}, false
	}
	return *p.workout, true
}

// Reloads returns how many times the page has been reloaded.
func (p *Page) Reloads() int {
	return p.reloads
}

// StartWorkout swaps a fresh workout fragment in. The previous fragment's
// nodes receive their removal signals before the new nodes are attached.
func (p *Page) StartWorkout(w Workout) {
	p.workout = &w
	p.initScripts()

	target := SlotID
	if len(p.fragment) > 0 {
		target = p.fragment[0].ID()
		for _, n := range p.fragment[1:] {
			p.doc.Remove(n.ID())
		}
	}
	p.fragment = p.buildFragment()
	p.doc.Swap(target, p.fragment...)
}

// AddSet logs a set and refreshes the chart in place. The duration counter
// keeps running.
func (p *Page) AddSet(s Set) error {
	if p.workout == nil {
		return ErrNoWorkout
	}
	if s.Reps <= 0 || s.Weight < 0 {
		return fmt.Errorf("invalid set: %d × %v", s.Reps, s.Weight)
	}
	p.workout.Sets = append(p.workout.Sets, s)
	if n := p.doc.Find("#" + SetsID); n != nil {
		n.Mount(p.setsTable())
	}
	p.loadChart()
	p.doc.Broadcast()
	return nil
}

// Reload tears every node down and mounts the page again.
func (p *Page) Reload() {
	p.logger.Printf("[page] reloading")
	p.doc.Clear()
	p.fragment = nil
	p.reloads++
	p.mount()
}

func (p *Page) mount() {
	header := dom.NewNode(HeaderID).WithText("livefrag")
	if p.workout == nil {
		p.doc.Append(header, dom.NewNode(SlotID).WithAttr("class", "placeholder").WithText("No workout in progress. Press n to start one."))
		return
	}
	p.initScripts()
	p.fragment = p.buildFragment()
	p.doc.Append(append([]*dom.Node{header}, p.fragment...)...)
}

// initScripts queues the fragment's bindings for the next attach signal.
func (p *Page) initScripts() {
	p.counter.Init(DurationSelector)
	p.loadChart()
}

func (p *Page) loadChart() {
	p.manager.Load(p.chartOptions, ChartSelector, func(h charts.Handle) {
		p.chart = h
	}, func() {
		p.chart = nil
	})
}

func (p *Page) buildFragment() []*dom.Node {
	w := p.workout
	sets := dom.NewNode(SetsID).WithAttr("class", "sets")
	sets.Mount(p.setsTable())
	return []*dom.Node{
		dom.NewNode(TitleID).WithAttr("class", "title").WithText(w.Name),
		dom.NewNode(DurationID).
			WithAttr(duration.StartAttr, strconv.FormatInt(w.Start.UnixMilli(), 10)).
			WithText(duration.Format(0)),
		dom.NewNode(ChartID).WithAttr("class", "chart"),
		sets,
	}
}

func (p *Page) chartOptions() charts.Options {
	w := p.workout
	data := make([]float64, len(w.Sets))
	cats := make([]string, len(w.Sets))
	for i, s := range w.Sets {
		data[i] = s.Volume()
		cats[i] = fmt.Sprintf("S%d", i+1)
	}
	return charts.Options{
		Kind:       charts.KindBar,
		Title:      w.Name,
		Series:     []charts.Series{{Name: "volume", Data: data}},
		Categories: cats,
		Unit:       "kg",
	}
}

func (p *Page) setsTable() *widgets.Table {
	rows := make([][]string, len(p.workout.Sets))
	for i, s := range p.workout.Sets {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(s.Reps),
			humanize.CommafWithDigits(s.Weight, 1) + " kg",
			humanize.CommafWithDigits(s.Volume(), 1) + " kg",
		}
	}
	return &widgets.Table{
		Columns: []widgets.TableColumn{
			{Width: 4},
			{Width: 5, AlignRight: true},
			{Width: 10, AlignRight: true},
			{Width: 12, AlignRight: true},
		},
		Header: []string{"SET", "REPS", "WEIGHT", "VOLUME"},
		Rows:   rows,
		Gap:    2,
	}
}
