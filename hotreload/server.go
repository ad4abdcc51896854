package hotreload

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server serves the hot-reload endpoint. Every client receives the current
// version token on connect and again whenever Bump is called.
type Server struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.Mutex
	version string
	clients map[*websocket.Conn]struct{}
}

// NewServer creates a Server with a random initial version.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		logger:  logger,
		version: uuid.NewString(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Version returns the current version token.
func (s *Server) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request and registers the client.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[hotreload] upgrade: %v", err)
		return
	}

	s.mu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, []byte(s.version))
	if err == nil {
		s.clients[conn] = struct{}{}
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Printf("[hotreload] write version: %v", err)
		conn.Close()
		return
	}
	s.logger.Printf("[hotreload] client connected from %s", r.RemoteAddr)

	// Clients never send anything useful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(conn)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Bump assigns a new version and pushes it to every client. Clients whose
// write fails are dropped.
func (s *Server) Bump() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = uuid.NewString()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(s.version)); err != nil {
			s.logger.Printf("[hotreload] push version: %v", err)
			delete(s.clients, conn)
			conn.Close()
		}
	}
	s.logger.Printf("[hotreload] version bumped to %s (%d clients)", s.version, len(s.clients))
	return s.version
}

// Shutdown closes every client connection.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	var g errgroup.Group
	for _, conn := range conns {
		g.Go(func() error {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			return conn.Close()
		})
	}
	return g.Wait()
}
