// Package realtime pushes messaging events to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"Strimoid/pkg/messaging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 4096
	sendBuffer = 16
)

// ErrSlowClient is returned by Publish when a client's buffer is full. The
// event is dropped for that client only.
var ErrSlowClient = errors.New("realtime: client send buffer full")

type client struct {
	userID uint
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks open connections per user. The zero value is not usable; use NewHub.
type Hub struct {
	log     zerolog.Logger
	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
}

var _ messaging.Publisher = (*Hub)(nil)

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log, clients: map[uint]map[*client]struct{}{}}
}

// Publish queues ev for every connection of userID. Users without a
// connection are skipped silently.
func (h *Hub) Publish(userID uint, ev messaging.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	var dropped bool
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			dropped = true
		}
	}
	if dropped {
		return ErrSlowClient
	}
	return nil
}

// Connected returns the number of open connections for userID.
func (h *Hub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if set == nil {
		set = map[*client]struct{}{}
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Serve runs the connection for userID until the peer goes away or ctx is
// done. It owns conn and closes it.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID uint) {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)
	defer conn.Close()

	h.log.Debug().Uint("user", userID).Msg("realtime client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer cancel()
		h.readPump(c)
	}()
	h.writePump(ctx, c)

	h.log.Debug().Uint("user", userID).Msg("realtime client disconnected")
}

// readPump discards client frames and keeps the read deadline alive.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Uint("user", c.userID).Msg("realtime read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debug().Err(err).Uint("user", c.userID).Msg("realtime write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
