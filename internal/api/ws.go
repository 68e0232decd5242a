package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 10 * time.Second
)

// Hub manages WebSocket connections and pushes monitoring updates to them.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	reg     chan *wsClient
	unreg   chan *wsClient
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	topics map[string]bool // "metrics", "alerts"; empty = all
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*wsClient]struct{}),
		reg:     make(chan *wsClient, 16),
		unreg:   make(chan *wsClient, 16),
	}
}

// Run processes register/unregister events.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.reg:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unreg:
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			close(c.send)
		}
	}
}

// Broadcast pushes the latest snapshot, and any alerts it raised, to
// connected clients. Slow clients are skipped rather than blocked on.
func (h *Hub) Broadcast(snap model.Snapshot, alerts []model.Alert) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	metrics, err := json.Marshal(map[string]any{
		"type":     "metrics",
		"snapshot": snap,
	})
	if err != nil {
		return
	}
	h.send("metrics", metrics)

	if len(alerts) > 0 {
		data, err := json.Marshal(map[string]any{
			"type":   "alerts",
			"alerts": alerts,
		})
		if err != nil {
			return
		}
		h.send("alerts", data)
	}
}

// send delivers to clients subscribed to topic. Caller holds h.mu.
func (h *Hub) send(topic string, data []byte) {
	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// client too slow, skip
		}
	}
}

func (c *wsClient) wants(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.topics) == 0 {
		return true
	}
	return c.topics[topic]
}

func (c *wsClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				// Closing here unblocks the read pump, which unregisters
				// the client.
				c.conn.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		}
	}
}

// HandleWS upgrades the request and manages the connection lifecycle.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for local tool
	})
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := &wsClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 64),
		topics: make(map[string]bool),
	}

	h.reg <- client

	ctx := r.Context()
	go client.pingLoop(ctx)
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		c.hub.unreg <- c
		c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	// Subscribers are allowed to never write; liveness is the ping loop's
	// job, so reads carry no deadline of their own.
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg struct {
			Type   string   `json:"type"`
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.mu.Lock()
			for _, t := range msg.Topics {
				c.topics[t] = true
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, t := range msg.Topics {
				delete(c.topics, t)
			}
			c.mu.Unlock()
		}
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	for data := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
}
