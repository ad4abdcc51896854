package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/livefrag/hotreload"
	"github.com/deevus/livefrag/internal"
	"github.com/deevus/livefrag/page"
	"github.com/deevus/livefrag/views"
)

const (
	firstSetReps   = 8
	firstSetWeight = 20.0
	weightStep     = 2.5
)

// Params holds configuration for creating an App.
type Params struct {
	Services *internal.Services
	// NotifierURL is the hot-reload endpoint. Empty disables hot reload.
	NotifierURL string
	BaseDelay   time.Duration
	Logger      *log.Logger
}

// App is the root vxfw widget for livefrag.
type App struct {
	services  *internal.Services
	page      *page.Page
	view      *views.PageView
	status    *views.StatusLine
	logger    *log.Logger
	postEvent func(vaxis.Event)

	notifierURL string
	baseDelay   time.Duration
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	workouts    int
}

// New creates the root App widget.
func New(p Params) *App {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	svc := p.Services
	if svc == nil {
		svc = internal.NewServices(nil, nil, nil)
	}
	a := &App{
		services:    svc,
		logger:      logger,
		notifierURL: p.NotifierURL,
		baseDelay:   p.BaseDelay,
	}
	a.page = page.New(page.Params{
		Charter: svc.Charter,
		Clock:   svc.Clock,
		Logger:  logger,
	})
	a.status = views.NewStatusLine(a.page.Reloads, svc.Clock.Now)
	a.view = views.NewPageView(views.PageViewParams{Document: a.page.Document(), Status: a.status})
	return a
}

// SetPostEvent sets the function used to post events to the vaxis event loop.
// Must be called before StartHotReload.
func (a *App) SetPostEvent(fn func(vaxis.Event)) {
	a.postEvent = fn
}

// Post runs fn on the event loop. Without a loop it runs fn immediately.
func (a *App) Post(fn func()) {
	if a.postEvent == nil {
		fn()
		return
	}
	a.postEvent(views.Dispatch{Fn: fn})
}

// Page returns the page the app displays.
func (a *App) Page() *page.Page {
	return a.page
}

// StartHotReload connects to the hot-reload endpoint in the background. A
// version change reloads the page on the event loop and starts a new session.
func (a *App) StartHotReload(ctx context.Context) {
	if a.notifierURL == "" || a.cancel != nil {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := hotreload.Supervise(ctx, hotreload.NotifierParams{
			URL:       a.notifierURL,
			Dialer:    a.services.Dialer,
			BaseDelay: a.baseDelay,
			Reload: func() {
				a.Post(a.page.Reload)
			},
			Logger: a.logger,
		}, func(n *hotreload.Notifier) {
			a.Post(func() { a.status.SetSession(n.Session()) })
		})
		if a.postEvent != nil && !errors.Is(err, context.Canceled) {
			a.postEvent(views.NotifierStopped{Err: err})
		}
	}()
}

// Stop cancels the hot-reload connection and waits for it to close.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
		a.wg.Wait()
	}
}

// NewWorkout swaps a fresh workout in.
func (a *App) NewWorkout() {
	a.workouts++
	a.page.StartWorkout(page.Workout{
		Name:  fmt.Sprintf("Workout %d", a.workouts),
		Start: a.services.Clock.Now(),
	})
}

// AddSet logs a set slightly heavier than the previous one.
func (a *App) AddSet() error {
	w, ok := a.page.Workout()
	if !ok {
		return page.ErrNoWorkout
	}
	next := page.Set{Reps: firstSetReps, Weight: firstSetWeight}
	if n := len(w.Sets); n > 0 {
		next = w.Sets[n-1]
		next.Weight += weightStep
	}
	return a.page.AddSet(next)
}

// Draw renders the page.
func (a *App) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, a)
	viewSurf, err := a.view.Draw(ctx)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, viewSurf)
	return s, nil
}

// CaptureEvent handles global keybindings.
func (a *App) CaptureEvent(ev vaxis.Event) (vxfw.Command, error) {
	switch ev := ev.(type) {
	case vaxis.Key:
		switch {
		case ev.Matches('q'):
			return vxfw.QuitCmd{}, nil
		case ev.Matches('n'):
			a.NewWorkout()
		case ev.Matches('a'):
			if err := a.AddSet(); err != nil {
				a.logger.Printf("add set: %v", err)
			}
		case ev.Matches('r'):
			a.page.Reload()
		default:
			return nil, nil
		}
		return vxfw.ConsumeAndRedraw(), nil
	}
	return nil, nil
}

// HandleEvent runs dispatched callbacks and handles custom events.
func (a *App) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	switch ev := ev.(type) {
	case views.Dispatch:
		ev.Fn()
		return vxfw.RedrawCmd{}, nil
	case views.NotifierStopped:
		if ev.Err != nil {
			a.logger.Printf("hot reload stopped: %v", ev.Err)
		}
		return vxfw.RedrawCmd{}, nil
	}
	return nil, nil
}
