package page_test

import (
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/deevus/livefrag/charts"
	"github.com/deevus/livefrag/clock"
	"github.com/deevus/livefrag/dom"
	"github.com/deevus/livefrag/page"
	"github.com/deevus/livefrag/widgets"
)

type mockHandle struct {
	renders  int
	updates  []charts.Options
	disposed int
}

func (h *mockHandle) Render() error { h.renders++; return nil }

func (h *mockHandle) UpdateOptions(opts charts.Options, redraw, animate bool) error {
	h.updates = append(h.updates, opts)
	return nil
}

func (h *mockHandle) Dispose() { h.disposed++ }

type mockCharter struct {
	handles []*mockHandle
}

func (c *mockCharter) Construct(el dom.Element, opts charts.Options) (charts.Handle, error) {
	h := &mockHandle{}
	c.handles = append(c.handles, h)
	return h, nil
}

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestPage(t *testing.T) (*page.Page, *mockCharter, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(epoch)
	mc := &mockCharter{}
	p := page.New(page.Params{
		Charter: mc,
		Clock:   fc,
		Logger:  log.New(&bytes.Buffer{}, "", 0),
		OnError: func(err error) { t.Errorf("unexpected chart error: %v", err) },
	})
	return p, mc, fc
}

func TestPage_InitialContent(t *testing.T) {
	p, mc, _ := newTestPage(t)
	doc := p.Document()
	if doc.Find("#"+page.HeaderID) == nil || doc.Find("#"+page.SlotID) == nil {
		t.Fatal("expected header and placeholder")
	}
	if len(mc.handles) != 0 {
		t.Errorf("expected no charts, got %d", len(mc.handles))
	}
	if _, ok := p.Workout(); ok {
		t.Error("expected no workout")
	}
}

func TestPage_StartWorkout(t *testing.T) {
	p, mc, fc := newTestPage(t)
	p.StartWorkout(page.Workout{Name: "Push", Start: epoch})

	doc := p.Document()
	if doc.Find("#"+page.SlotID) != nil {
		t.Error("placeholder still attached")
	}
	if len(mc.handles) != 1 || mc.handles[0].renders != 1 {
		t.Fatalf("expected one rendered chart, got %+v", mc.handles)
	}
	if _, ok := p.Chart(); !ok {
		t.Error("chart not recorded")
	}
	if p.Counters().Active() != 1 {
		t.Fatalf("expected 1 counter, got %d", p.Counters().Active())
	}

	fc.Advance(65 * time.Second)
	if got := doc.Find(page.DurationSelector).Text(); got != "01m 05s" {
		t.Errorf("expected 01m 05s, got %q", got)
	}
}

func TestPage_StartWorkoutReplacesFragment(t *testing.T) {
	p, mc, fc := newTestPage(t)
	p.StartWorkout(page.Workout{Name: "Push", Start: epoch})
	p.StartWorkout(page.Workout{Name: "Pull", Start: epoch.Add(time.Minute)})

	if len(mc.handles) != 2 {
		t.Fatalf("expected 2 charts, got %d", len(mc.handles))
	}
	if mc.handles[0].disposed != 1 {
		t.Errorf("old chart disposed %d times", mc.handles[0].disposed)
	}
	if mc.handles[1].disposed != 0 {
		t.Error("new chart disposed")
	}
	if p.Counters().Active() != 1 {
		t.Errorf("expected 1 counter, got %d", p.Counters().Active())
	}
	if fc.Pending() != 1 {
		t.Errorf("expected 1 pending timer, got %d", fc.Pending())
	}
	if p.Charts().Len() != 1 {
		t.Errorf("expected 1 registered chart, got %d", p.Charts().Len())
	}
	if got := p.Document().Find("#" + page.TitleID).Text(); got != "Pull" {
		t.Errorf("expected title Pull, got %q", got)
	}
	if n := len(p.Document().Nodes()); n != 5 {
		t.Errorf("expected header plus 4 fragment nodes, got %d", n)
	}
}

func TestPage_AddSetUpdatesInPlace(t *testing.T) {
	p, mc, _ := newTestPage(t)
	p.StartWorkout(page.Workout{Name: "Push", Start: epoch})

	if err := p.AddSet(page.Set{Reps: 8, Weight: 60}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.AddSet(page.Set{Reps: 10, Weight: 62.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mc.handles) != 1 {
		t.Fatalf("expected chart to be reused, got %d constructs", len(mc.handles))
	}
	h := mc.handles[0]
	if len(h.updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(h.updates))
	}
	last := h.updates[1]
	if got := last.Series[0].Data; len(got) != 2 || got[0] != 480 || got[1] != 625 {
		t.Errorf("unexpected chart data %v", got)
	}
	if p.Counters().Active() != 1 {
		t.Errorf("AddSet started another counter: %d", p.Counters().Active())
	}

	tbl, ok := p.Document().Find("#" + page.SetsID).Content().(*widgets.Table)
	if !ok {
		t.Fatal("sets table not mounted")
	}
	if len(tbl.Rows) != 2 || tbl.Rows[1][2] != "62.5 kg" {
		t.Errorf("unexpected rows %v", tbl.Rows)
	}
}

func TestPage_AddSetErrors(t *testing.T) {
	p, _, _ := newTestPage(t)
	if err := p.AddSet(page.Set{Reps: 5, Weight: 20}); !errors.Is(err, page.ErrNoWorkout) {
		t.Errorf("expected ErrNoWorkout, got %v", err)
	}
	p.StartWorkout(page.Workout{Name: "Push", Start: epoch})
	if err := p.AddSet(page.Set{Reps: 0, Weight: 20}); err == nil {
		t.Error("expected error for zero reps")
	}
}

func TestPage_ReloadTearsDownOnce(t *testing.T) {
	p, mc, fc := newTestPage(t)
	p.StartWorkout(page.Workout{Name: "Push", Start: epoch, Sets: []page.Set{{Reps: 5, Weight: 100}}})

	p.Reload()

	if p.Reloads() != 1 {
		t.Errorf("expected 1 reload, got %d", p.Reloads())
	}
	if len(mc.handles) != 2 {
		t.Fatalf("expected a fresh chart after reload, got %d", len(mc.handles))
	}
	if mc.handles[0].disposed != 1 {
		t.Errorf("old chart disposed %d times", mc.handles[0].disposed)
	}
	if p.Counters().Active() != 1 {
		t.Errorf("expected 1 counter, got %d", p.Counters().Active())
	}
	if fc.Pending() != 1 {
		t.Errorf("expected 1 pending timer, got %d", fc.Pending())
	}
	w, ok := p.Workout()
	if !ok || len(w.Sets) != 1 {
		t.Errorf("workout not preserved across reload: %+v", w)
	}
}

func TestPage_ReloadWithoutWorkout(t *testing.T) {
	p, mc, _ := newTestPage(t)
	p.Reload()
	p.Reload()
	if p.Document().Find("#"+page.SlotID) == nil {
		t.Error("placeholder missing after reload")
	}
	if len(p.Document().Nodes()) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(p.Document().Nodes()))
	}
	if len(mc.handles) != 0 {
		t.Errorf("unexpected charts: %d", len(mc.handles))
	}
}

func TestWorkout_Volume(t *testing.T) {
	w := page.Workout{Sets: []page.Set{{Reps: 5, Weight: 100}, {Reps: 3, Weight: 110}}}
	if got := w.Volume(); got != 830 {
		t.Errorf("expected 830, got %v", got)
	}
}
