package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/app"
)

const (
	// clientBuffer is how many snapshots may queue for a slow client before
	// newer ones are dropped.
	clientBuffer = 8
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type overlayClient struct {
	conn *websocket.Conn
	send chan []byte
}

// OverlayHub broadcasts frame snapshots to websocket clients. Publish never
// blocks the frame loop: each client has its own writer goroutine and a
// small buffer, and snapshots that do not fit are dropped.
type OverlayHub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*overlayClient]struct{}
	last    []byte
	closed  bool
}

// NewOverlayHub creates an empty hub.
func NewOverlayHub(log zerolog.Logger) *OverlayHub {
	return &OverlayHub{
		log:     log.With().Str("component", "overlay").Logger(),
		clients: make(map[*overlayClient]struct{}),
	}
}

// Publish encodes s once and queues it for every client. It matches
// app.Observer.
func (h *OverlayHub) Publish(s app.Snapshot) {
	msg, err := json.Marshal(s)
	if err != nil {
		h.log.Warn().Err(err).Msg("encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *OverlayHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams snapshots until the client
// disconnects. A new client first receives the latest snapshot.
func (h *OverlayHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}

	c := &overlayClient{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Reads only detect the close; clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

func (h *OverlayHub) writeLoop(c *overlayClient) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// remove unregisters c and stops its writer. It is safe to call twice.
func (h *OverlayHub) remove(c *overlayClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client and refuses new ones.
func (h *OverlayHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
