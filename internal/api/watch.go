package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/dangerclosesec/topo"
	"github.com/gorilla/websocket"
)

// WebSocket configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConfig represents WebSocket-specific configuration
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
}

// Default WebSocket configuration values
var defaultWSConfig = WebSocketConfig{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteWait:       10 * time.Second,
	PongWait:        60 * time.Second,
	PingPeriod:      (60 * time.Second * 9) / 10,
}

// WatchConnection represents a managed WebSocket subscriber receiving
// document reload events.
type WatchConnection struct {
	ID       string
	Conn     *websocket.Conn
	Done     chan struct{}
	ErrorCh  chan error
	IsClosed bool
	mu       sync.RWMutex
}

// NewWatchConnection creates a new WebSocket subscriber handler
func NewWatchConnection(id string, conn *websocket.Conn) *WatchConnection {
	return &WatchConnection{
		ID:      id,
		Conn:    conn,
		Done:    make(chan struct{}),
		ErrorCh: make(chan error, 2),
	}
}

// Close safely closes the WebSocket connection
func (wc *WatchConnection) Close() error {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	if wc.IsClosed {
		return nil
	}

	wc.IsClosed = true
	close(wc.Done)

	// Send close message to client
	message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	deadline := time.Now().Add(defaultWSConfig.WriteWait)
	err := wc.Conn.WriteControl(websocket.CloseMessage, message, deadline)

	if err := wc.Conn.Close(); err != nil {
		return err
	}

	return err
}

// IsAlive checks if the connection is still active
func (wc *WatchConnection) IsAlive() bool {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	return !wc.IsClosed
}

// Handle pushes store events to the client until the subscription
// drains, the client goes away, or the connection errors.
func (wc *WatchConnection) Handle(events <-chan topo.Event) {
	// Start ping-pong handler
	go wc.pingHandler()

	// Drain client frames so pongs are processed
	go wc.readLoop()

	for {
		select {
		case <-wc.Done:
			return
		case err := <-wc.ErrorCh:
			if err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := wc.writeEvent(event); err != nil {
				return
			}
		}
	}
}

// pingHandler maintains connection liveness
func (wc *WatchConnection) pingHandler() {
	ticker := time.NewTicker(defaultWSConfig.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		case <-wc.Done:
			return
		}
	}
}

// ping sends a ping message to keep the connection alive
func (wc *WatchConnection) ping() error {
	wc.mu.RLock()
	defer wc.mu.RUnlock()

	if wc.IsClosed {
		return nil
	}

	deadline := time.Now().Add(defaultWSConfig.WriteWait)
	err := wc.Conn.WriteControl(websocket.PingMessage, []byte{}, deadline)
	if err != nil {
		wc.fail(err)
		return err
	}
	return nil
}

// readLoop consumes client frames; the watch stream is push-only, so
// anything other than control frames is discarded.
func (wc *WatchConnection) readLoop() {
	wc.Conn.SetReadDeadline(time.Now().Add(defaultWSConfig.PongWait))
	wc.Conn.SetPongHandler(func(string) error {
		return wc.Conn.SetReadDeadline(time.Now().Add(defaultWSConfig.PongWait))
	})

	for {
		if _, _, err := wc.Conn.ReadMessage(); err != nil {
			wc.fail(err)
			return
		}
	}
}

// writeEvent sends one event to the client as JSON
func (wc *WatchConnection) writeEvent(event topo.Event) error {
	wc.mu.RLock()
	defer wc.mu.RUnlock()

	if wc.IsClosed {
		return nil
	}

	wc.Conn.SetWriteDeadline(time.Now().Add(defaultWSConfig.WriteWait))
	return wc.Conn.WriteJSON(event)
}

// fail reports a connection error without ever blocking
func (wc *WatchConnection) fail(err error) {
	select {
	case wc.ErrorCh <- err:
	default:
	}
}

// watch upgrades the request and streams reload events from the store,
// beginning with a snapshot of the served version.
func watch(s *topo.Store) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade WebSocket connection: %v", err)
			return
		}

		id, events := s.Subscribe()
		wc := NewWatchConnection(id, conn)
		defer func() {
			s.Unsubscribe(id)
			wc.Close()
		}()

		current := topo.Event{Type: topo.EventCurrent, Version: s.Version(), Time: time.Now()}
		if err := wc.writeEvent(current); err != nil {
			return
		}

		wc.Handle(events)
	}
}
