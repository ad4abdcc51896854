package hotreload_test

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deevus/livefrag/hotreload"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*hotreload.Server, string) {
	t.Helper()
	srv := hotreload.NewServer(quietLogger())
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Shutdown()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + hotreload.Path
}

func readToken(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("expected text message, got %d", mt)
	}
	return string(data)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestServer_SendsVersionOnConnect(t *testing.T) {
	srv, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	if got := readToken(t, conn); got != srv.Version() {
		t.Errorf("expected %q, got %q", srv.Version(), got)
	}
	if srv.Clients() != 1 {
		t.Errorf("expected 1 client, got %d", srv.Clients())
	}
}

func TestServer_BumpPushesNewVersion(t *testing.T) {
	srv, url := newTestServer(t)

	a, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	b, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	first := readToken(t, a)
	readToken(t, b)

	next := srv.Bump()
	if next == first {
		t.Fatal("Bump did not change the version")
	}
	if got := readToken(t, a); got != next {
		t.Errorf("client a: expected %q, got %q", next, got)
	}
	if got := readToken(t, b); got != next {
		t.Errorf("client b: expected %q, got %q", next, got)
	}
}

func TestServer_DropsClosedClients(t *testing.T) {
	srv, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readToken(t, conn)
	conn.Close()

	waitFor(t, "client to be dropped", func() bool { return srv.Clients() == 0 })
}

func TestServer_NotifierReloadsOnBump(t *testing.T) {
	srv, url := newTestServer(t)

	var reloads atomic.Int32
	n := hotreload.NewNotifier(hotreload.NotifierParams{
		URL:       url,
		BaseDelay: time.Millisecond,
		Reload:    func() { reloads.Add(1) },
		Logger:    quietLogger(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- n.Run(context.Background()) }()

	waitFor(t, "baseline", func() bool {
		_, ok := n.Session().Baseline()
		return ok
	})
	srv.Bump()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if reloads.Load() != 1 {
		t.Errorf("expected 1 reload, got %d", reloads.Load())
	}
}

func TestServer_NotifierSurvivesRestart(t *testing.T) {
	srv := hotreload.NewServer(quietLogger())
	ts := httptest.NewServer(srv)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + hotreload.Path

	var reloads atomic.Int32
	n := hotreload.NewNotifier(hotreload.NotifierParams{
		URL:       url,
		BaseDelay: time.Millisecond,
		Reload:    func() { reloads.Add(1) },
		Logger:    quietLogger(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	waitFor(t, "baseline", func() bool {
		_, ok := n.Session().Baseline()
		return ok
	})

	// A restarted server comes back on the same address with a new version.
	addr := ts.Listener.Addr().String()
	srv.Shutdown()
	ts.CloseClientConnections()
	ts.Close()

	waitFor(t, "disconnect", func() bool { return n.Session().State() == hotreload.Connecting })

	srv2 := hotreload.NewServer(quietLogger())
	ts2 := httptest.NewUnstartedServer(srv2)
	l, err := listen(addr)
	if err != nil {
		t.Skipf("cannot rebind %s: %v", addr, err)
	}
	ts2.Listener.Close()
	ts2.Listener = l
	ts2.Start()
	defer ts2.Close()
	defer srv2.Shutdown()

	waitFor(t, "reload", func() bool { return reloads.Load() == 1 })
}

func listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
