// Package monitor provides an optional, read-only debug endpoint that
// streams connection slot lifecycle events over WebSocket. It is strictly
// supplemental: nothing it sends is ever read back, so it cannot be used to
// reconfigure or otherwise control the running proxy.
package monitor

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event describes a single slot state transition.
type Event struct {
	Time   time.Time `json:"time"`
	Slot   int       `json:"slot"`
	State  string    `json:"state"`
	Peer   string    `json:"peer,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Monitor broadcasts Events to any connected WebSocket clients. Publish is
// safe to call from multiple goroutines; it never blocks on a slow or
// disconnected client.
type Monitor struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

// New creates a Monitor. The upgrader rejects cross-origin requests outright
// since this endpoint is only ever meant to be reached over loopback.
func New(logger *slog.Logger) *Monitor {
	return &Monitor{
		logger: logger,
		upgrader: websocket.Upgrader{
			// A nil CheckOrigin makes the upgrader refuse any request whose
			// Origin header names a host other than the request's own.
			CheckOrigin: nil,
		},
		clients: make(map[*websocket.Conn]chan Event),
	}
}

// Publish broadcasts an event to every connected client. Clients that can't
// keep up have the event dropped rather than stalling the proxy.
func (m *Monitor) Publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams events to it
// until the client disconnects.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("monitor upgrade failed", "error", err)
		return
	}

	ch := make(chan Event, 64)
	m.mu.Lock()
	m.clients[conn] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.clients, conn)
		m.mu.Unlock()
		conn.Close()
	}()

	// Drain client reads so the connection's pong handling runs; the
	// endpoint never accepts commands, so any message received is ignored.
	// The client is removed from the map, under the same lock Publish
	// sends under, before ch is closed: once the delete is visible, no
	// concurrent Publish call can still be holding a reference to ch, so
	// closing it here can never race with a send in Publish.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.mu.Lock()
				delete(m.clients, conn)
				m.mu.Unlock()
				close(ch)
				return
			}
		}
	}()

	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// ListenAndServe starts the monitor's HTTP server on addr. A non-loopback
// addr is logged as a warning and bound anyway. It blocks until the
// listener errors or the server is closed.
func ListenAndServe(addr string, m *Monitor) error {
	if !isLoopback(addr) {
		m.logger.Warn("monitor address is not loopback; binding anyway", "addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/", m)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return server.ListenAndServe()
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return host == "localhost"
	}
	return ip.IsLoopback()
}
