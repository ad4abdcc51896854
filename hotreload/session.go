// Package hotreload reloads a page when the server's version token changes.
//
// The client side is a Session state machine driven by a Notifier that keeps
// exactly one websocket open and reconnects with additive backoff. The server
// side pushes a version token to every client and bumps it when watched files
// change.
package hotreload

import (
	"sync"
	"time"
)

// DefaultBaseDelay is the reconnect delay after a successful connection.
const DefaultBaseDelay = time.Second

// maxDelayFactor caps the reconnect delay at this multiple of the base.
const maxDelayFactor = 10

// State is the connection state of a Session.
type State int

const (
	Connecting State = iota
	Connected
	Reloading
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reloading:
		return "reloading"
	}
	return "unknown"
}

// Backoff is an additive reconnect delay: each failure adds Base, capped at
// ten times Base.
type Backoff struct {
	Base  time.Duration
	delay time.Duration
}

// Delay returns the current delay.
func (b *Backoff) Delay() time.Duration {
	if b.delay == 0 {
		return b.Base
	}
	return b.delay
}

// Next returns the delay to wait now and bumps the following one.
func (b *Backoff) Next() time.Duration {
	d := b.Delay()
	b.delay = min(d+b.Base, maxDelayFactor*b.Base)
	return d
}

// Reset returns the delay to Base.
func (b *Backoff) Reset() {
	b.delay = b.Base
}

// Session is the hot-reload state for one page lifetime. It is safe for
// concurrent use so a UI can inspect it while a Notifier drives it.
type Session struct {
	mu          sync.Mutex
	state       State
	backoff     Backoff
	baseline    string
	hasBaseline bool
	connectedAt time.Time
}

// NewSession creates a Session in the Connecting state. A non-positive base
// uses DefaultBaseDelay.
func NewSession(base time.Duration) *Session {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return &Session{backoff: Backoff{Base: base}}
}

// Opened records a successful connection and resets the backoff.
func (s *Session) Opened(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Reloading {
		return
	}
	s.state = Connected
	s.connectedAt = at
	s.backoff.Reset()
}

// Message handles a version token and reports whether the page must reload.
// The first token becomes the baseline; any later different token triggers a
// single reload, after which every message is ignored.
func (s *Session) Message(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Reloading {
		return false
	}
	if !s.hasBaseline {
		s.baseline = token
		s.hasBaseline = true
		return false
	}
	if token == s.baseline {
		return false
	}
	s.state = Reloading
	return true
}

// Closed records a lost or failed connection and returns how long to wait
// before reconnecting.
func (s *Session) Closed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Reloading {
		s.state = Connecting
	}
	return s.backoff.Next()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Delay returns the delay the next reconnect will wait.
func (s *Session) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backoff.Delay()
}

// Baseline returns the recorded version token, if any.
func (s *Session) Baseline() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline, s.hasBaseline
}

// ConnectedAt returns when the current connection opened. It is zero unless
// the session is connected.
func (s *Session) ConnectedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return time.Time{}
	}
	return s.connectedAt
}
