package stage

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"arzone/lib/logging"
)

const defaultWriteTimeout = 5 * time.Second

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// hub pushes snapshots to viewer pages. A client that falls behind misses
// intermediate snapshots; the next one brings it up to date.
type hub struct {
	log          *slog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(log *slog.Logger) *hub {
	return &hub{
		log:          log,
		writeTimeout: defaultWriteTimeout,
		clients:      make(map[*client]struct{}),
	}
}

func (h *hub) serve(w http.ResponseWriter, r *http.Request, initial []byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 16),
	}
	c.send <- initial

	log := h.log.With(slog.String(logging.FieldSession, c.id), slog.String(logging.FieldRemote, r.RemoteAddr))
	h.add(c)
	log.Info("viewer connected")
	go h.writeLoop(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	log.Info("viewer disconnected")
}

// writeLoop owns writes to c. A failed write closes the connection so the
// read loop in serve returns and removes the client.
func (h *hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("viewer write failed", slog.String(logging.FieldSession, c.id), slog.Any("error", err))
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug("viewer behind, dropping snapshot", slog.String(logging.FieldSession, c.id))
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
