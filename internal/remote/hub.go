package remote

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/notify"
)

const (
	sendBuffer   = 32
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	readLimit    = 4096
)

// Event is the JSON form of a property change.
type Event struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Hub fans property changes out to websocket clients. New clients first
// receive the latest value of every field seen so far.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	last    map[string][]byte
	order   []string
	log     *zap.Logger
}

// NewHub returns an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		last:    make(map[string][]byte),
		log:     log,
	}
}

// Publish broadcasts c. It never blocks: clients that fall behind are dropped.
func (h *Hub) Publish(c notify.Change) {
	data, err := json.Marshal(Event{Field: c.Field, Value: c.Value})
	if err != nil {
		h.log.Warn("event not encodable", zap.String("field", c.Field), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.last[c.Field]; !ok {
		h.order = append(h.order, c.Field)
	}
	h.last[c.Field] = data
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			h.log.Debug("dropping slow client", zap.String("addr", cl.addr))
			h.removeLocked(cl)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &client{conn: conn, send: make(chan []byte, sendBuffer+len(h.order)), addr: conn.RemoteAddr().String()}
	for _, field := range h.order {
		c.send <- h.last[field]
	}
	h.clients[c] = struct{}{}
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// readPump discards client messages until the connection drops.
func (c *client) readPump(h *Hub) {
	defer h.remove(c)
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

func (c *client) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("websocket write failed", zap.String("addr", c.addr), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
