// Package ws streams session change events to connected clients over
// WebSocket, so the shell extension and the settings UI re-render
// without polling.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/blipk/worksetsd/internal/infrastructure/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The listener is loopback-only; origin checks add nothing.
		return true
	},
}

// Handler manages WebSocket connections and fans session change events
// out to all of them.
type Handler struct {
	log *logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHandler creates a new WebSocket handler.
func NewHandler(log *logging.Logger) *Handler {
	return &Handler{
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// HandleConnection upgrades the request and serves the connection until
// the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer h.drop(conn)

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	h.send(conn, map[string]interface{}{
		"type":    "system",
		"message": "Connected to worksets engine",
	})

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "ping":
			h.send(conn, map[string]interface{}{"type": "pong"})
		default:
			h.send(conn, map[string]interface{}{
				"type":    "error",
				"message": "unknown message type",
			})
		}
	}
}

// BroadcastSessionChanged tells every client the session document
// changed. It is registered as a session manager change listener.
func (h *Handler) BroadcastSessionChanged() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	payload := map[string]interface{}{
		"type":      "session_changed",
		"timestamp": time.Now().Unix(),
	}
	for _, conn := range conns {
		if err := h.send(conn, payload); err != nil {
			h.drop(conn)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Handler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Handler) send(conn *websocket.Conn, data interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(data)
}

func (h *Handler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}
