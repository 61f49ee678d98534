// Package livefeed streams post events to browsers and CLI watchers over
// websockets.
package livefeed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Hub fans post events out to connected websocket clients. It implements
// domain.EventPublisher and http.Handler.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

var _ domain.EventPublisher = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	types map[domain.PostType]bool
}

func (c *client) wants(t domain.PostType) bool {
	return len(c.types) == 0 || c.types[t]
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client goes away. Repeated ?type= parameters restrict the stream to
// posts of those types.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	types := make(map[domain.PostType]bool)
	for _, v := range r.URL.Query()["type"] {
		t := domain.NormalizePostType(v)
		if !t.Valid() {
			http.Error(w, "unknown post type", http.StatusBadRequest)
			return
		}
		types[t] = true
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		types: types,
	}
	h.add(c)
	defer h.remove(c)

	go h.writePump(c)
	h.readPump(c)
}

// PublishPostEvent queues the event for every interested client. Clients
// whose buffer is full are disconnected.
func (h *Hub) PublishPostEvent(_ context.Context, event domain.PostEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.wants(event.Post.Type) {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow live feed client", "remote", c.conn.RemoteAddr().String())
		h.remove(c)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.LiveClients.Inc()
	h.logger.Debug("live feed client connected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		metrics.LiveClients.Dec()
		h.logger.Debug("live feed client disconnected", "remote", c.conn.RemoteAddr().String())
	}
}

// readPump discards inbound messages and keeps the read deadline fresh on
// pongs. It returns when the connection fails or closes.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}
