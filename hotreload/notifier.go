package hotreload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	"github.com/deevus/livefrag/clock"
	"github.com/gorilla/websocket"
)

// Path is the endpoint path served by Server and dialled by Notifier.
const Path = "/ws/hotreload"

// ErrTransport wraps every dial and read failure. They all lead to a
// reconnect.
var ErrTransport = errors.New("hot reload transport failure")

// Conn is one open connection. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens connections to the hot-reload endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket.
type WebSocketDialer struct {
	Dialer *websocket.Dialer
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// EndpointURL returns the websocket URL for a page served from host and port.
func EndpointURL(host, port string) string {
	addr := host
	if port != "" {
		addr = net.JoinHostPort(host, port)
	}
	return (&url.URL{Scheme: "ws", Host: addr, Path: Path}).String()
}

// EndpointFromPage derives the websocket URL from a page URL, keeping its
// host and port. Pages served over https get a wss endpoint.
func EndpointFromPage(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing page url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("page url %q has no host", pageURL)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: Path}).String(), nil
}

// NotifierParams holds configuration for creating a Notifier.
type NotifierParams struct {
	URL    string
	Dialer Dialer
	Clock  clock.Clock
	// BaseDelay is the reconnect delay after a successful connection.
	// Defaults to DefaultBaseDelay.
	BaseDelay time.Duration
	// Reload is called once when the server version changes.
	Reload func()
	Logger *log.Logger
}

// Notifier keeps a connection to the hot-reload endpoint for the lifetime of
// a page.
type Notifier struct {
	url     string
	dialer  Dialer
	clock   clock.Clock
	reload  func()
	logger  *log.Logger
	session *Session
}

// NewNotifier creates a Notifier with a fresh Session.
func NewNotifier(p NotifierParams) *Notifier {
	d := p.Dialer
	if d == nil {
		d = WebSocketDialer{}
	}
	c := p.Clock
	if c == nil {
		c = clock.Real{}
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{
		url:     p.URL,
		dialer:  d,
		clock:   c,
		reload:  p.Reload,
		logger:  logger,
		session: NewSession(p.BaseDelay),
	}
}

// Session exposes the state machine for inspection.
func (n *Notifier) Session() *Session {
	return n.session
}

// Run connects, waits for version tokens and reconnects after every close
// until the version changes or ctx is cancelled. It returns nil after
// triggering a reload and ctx.Err() on cancellation. Only one connection is
// open at a time; the next dial waits for the previous one to close and for
// the backoff delay to elapse.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		conn, err := n.dialer.Dial(ctx, n.url)
		if err == nil {
			n.session.Opened(n.clock.Now())
			n.logger.Printf("[Hot Reloader] server connected")
			if n.listen(ctx, conn) {
				n.logger.Printf("[Hot Reloader] server changed, reloading")
				if n.reload != nil {
					n.reload()
				}
				return nil
			}
		} else if ctx.Err() == nil {
			n.logger.Printf("[Hot Reloader] %v", fmt.Errorf("%w: %w", ErrTransport, err))
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := n.session.Closed()
		n.logger.Printf("[Hot Reloader] lost connection with server, reconnecting in %s", delay)
		if !clock.Sleep(n.clock, delay, ctx.Done()) {
			return ctx.Err()
		}
	}
}

// listen reads tokens until the connection fails or the version changes. It
// always closes conn and reports whether a reload is due.
func (n *Notifier) listen(ctx context.Context, conn Conn) bool {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				n.logger.Printf("[Hot Reloader] %v", fmt.Errorf("%w: %w", ErrTransport, err))
			}
			return false
		}
		if mt != websocket.TextMessage {
			continue
		}
		if n.session.Message(string(data)) {
			return true
		}
	}
}

// Supervise runs notifiers back to back. Each reload ends a session the way a
// page reload does, and a fresh Notifier with a new Session takes over.
// started is called with every new Notifier before it dials. Supervise only
// returns on cancellation.
func Supervise(ctx context.Context, p NotifierParams, started func(*Notifier)) error {
	for {
		n := NewNotifier(p)
		if started != nil {
			started(n)
		}
		if err := n.Run(ctx); err != nil {
			return err
		}
	}
}
