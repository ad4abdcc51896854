// Package charts binds chart instances to swapped page elements.
//
// A Manager keeps one chart Handle per selector. Load reacts to the next
// attach signal: the first time a selector is seen a chart is constructed and
// rendered, later loads update it in place, and the element's removal signal
// disposes it.
package charts

import (
	"errors"
	"fmt"
	"log"

	"github.com/deevus/livefrag/dom"
)

// Charter constructs charts. It is the charting library seen by the Manager.
type Charter interface {
	Construct(el dom.Element, opts Options) (Handle, error)
}

// Handle is one rendered chart instance.
type Handle interface {
	Render() error
	// UpdateOptions replaces the chart content in place. redraw asks for the
	// geometry to be recalculated; animate asks for a transition.
	UpdateOptions(opts Options, redraw, animate bool) error
	Dispose()
}

// ManagerParams holds configuration for creating a Manager.
type ManagerParams struct {
	Bus dom.Bus
	// Charter may be nil, in which case every load fails with
	// ErrMissingDependency.
	Charter Charter
	Logger  *log.Logger
	OnError func(error)
}

// Manager owns the chart registry.
type Manager struct {
	bus      dom.Bus
	charter  Charter
	logger   *log.Logger
	onError  func(error)
	registry map[string]Handle
}

// NewManager creates a Manager with an empty registry.
func NewManager(p ManagerParams) *Manager {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		bus:      p.Bus,
		charter:  p.Charter,
		logger:   logger,
		onError:  p.OnError,
		registry: make(map[string]Handle),
	}
}

// Load syncs the chart at selector on the next attach signal. It must be
// called again for every later swap that should resync the chart.
func (m *Manager) Load(getOptions func() Options, selector string, onLoad func(Handle), onDestroy func()) *dom.Once {
	return dom.NextAttach(m.bus, func() {
		m.sync(getOptions, selector, onLoad, onDestroy)
	})
}

func (m *Manager) sync(getOptions func() Options, selector string, onLoad func(Handle), onDestroy func()) {
	if m.charter == nil {
		m.fail(ErrMissingDependency)
		return
	}
	el := m.bus.Query(selector)
	if el == nil {
		m.fail(fmt.Errorf("%w %q", ErrElementNotFound, selector))
		return
	}

	if h, ok := m.registry[selector]; ok {
		err := guard("update", func() error {
			return h.UpdateOptions(getOptions(), true, true)
		})
		if err != nil {
			m.fail(err)
		}
		return
	}

	var h Handle
	err := guard("construct", func() error {
		var err error
		h, err = m.charter.Construct(el, getOptions())
		if err == nil && h == nil {
			err = errors.New("no chart returned")
		}
		return err
	})
	if err != nil {
		m.fail(err)
		return
	}
	if err := guard("render", h.Render); err != nil {
		m.fail(err)
		h.Dispose()
		return
	}

	m.registry[selector] = h
	if onLoad != nil {
		onLoad(h)
	}

	el.OnRemove(func() {
		m.logger.Printf("[charts] destroy: %s", selector)
		h.Dispose()
		if cur, ok := m.registry[selector]; ok && cur == h {
			delete(m.registry, selector)
		} else {
			m.logger.Printf("[charts] selector %s was re-registered by another chart", selector)
		}
		if onDestroy != nil {
			onDestroy()
		}
	})
}

func (m *Manager) fail(err error) {
	m.logger.Printf("[charts] %v", err)
	if m.onError != nil {
		m.onError(err)
	}
}

// Get returns the chart registered for selector.
func (m *Manager) Get(selector string) (Handle, bool) {
	h, ok := m.registry[selector]
	return h, ok
}

// Len returns the number of registered charts.
func (m *Manager) Len() int {
	return len(m.registry)
}
