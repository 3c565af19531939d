package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/pkg/logger"
)

const writeTimeout = 5 * time.Second

// Hub tracks connected rider feeds, one connection per rider. A new
// connection for the same rider replaces the old one.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
	log   logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns: map[string]*websocket.Conn{},
		log:   log,
	}
}

func (h *Hub) Add(email string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.conns[email]; ok {
		existing.Close()
	}
	h.conns[email] = conn
}

func (h *Hub) Remove(email string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[email] == conn {
		delete(h.conns, email)
	}
}

// Broadcast sends the event to every connected rider except skip. Dead
// connections are dropped.
func (h *Hub) Broadcast(ctx context.Context, ev models.OrderEvent, skip string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for email, conn := range h.conns {
		if email == skip {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			h.log.Warn(ctx, "dropping dead feed connection", "email", email, "err", err.Error())
			conn.Close()
			delete(h.conns, email)
		}
	}
}
