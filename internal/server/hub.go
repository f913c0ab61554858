package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients only send control frames.
	maxMessageSize = 512

	// Outgoing messages buffered per client before it counts as too slow
	sendBuffer = 64
)

// MessageType identifies a websocket message.
type MessageType string

const (
	MsgSnapshot     MessageType = "snapshot"
	MsgNotification MessageType = "notification"
)

// Message is the envelope of every websocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type wsClient struct {
	id     uuid.UUID
	remote string
	conn   *websocket.Conn
	send   chan []byte
}

func newWSClient(conn *websocket.Conn, remote string) *wsClient {
	c := &wsClient{
		id:     uuid.New(),
		remote: remote,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	go c.writePump()
	return c
}

// writePump forwards queued messages and pings. It owns all writes to conn.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Hub fans messages out to websocket clients. A client whose buffer is full
// is disconnected rather than slowing the others down.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*wsClient
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]*wsClient)}
}

// AddClient registers conn and queues the initial snapshot for it.
func (h *Hub) AddClient(conn *websocket.Conn, remote string, snapshot any) *wsClient {
	c := newWSClient(conn, remote)

	if data, err := json.Marshal(Message{Type: MsgSnapshot, Payload: snapshot}); err == nil {
		c.send <- data
	} else {
		logging.Error("Failed to marshal snapshot", zap.Error(err))
	}

	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	metrics.BridgeClients.Set(float64(count))
	logging.Info("WebSocket client connected",
		zap.String("client_id", c.id.String()),
		zap.String("remote_addr", remote),
	)
	return c
}

// RemoveClient unregisters c and closes its send queue. Removing a client
// twice is harmless.
func (h *Hub) RemoveClient(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.BridgeClients.Set(float64(count))
		logging.Info("WebSocket client disconnected",
			zap.String("client_id", c.id.String()),
			zap.String("remote_addr", c.remote),
		)
	}
}

// Broadcast sends a message to every client.
func (h *Hub) Broadcast(t MessageType, payload any) {
	data, err := json.Marshal(Message{Type: t, Payload: payload})
	if err != nil {
		logging.Error("Failed to marshal broadcast", zap.String("type", string(t)), zap.Error(err))
		return
	}

	var slow []*wsClient
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logging.Warn("WebSocket client too slow, disconnecting", zap.String("client_id", c.id.String()))
		h.RemoveClient(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client with a normal close frame.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uuid.UUID]*wsClient)
	for _, c := range clients {
		close(c.send)
	}
	h.mu.Unlock()

	metrics.BridgeClients.Set(0)
	if len(clients) > 0 {
		logging.Info("Closed websocket clients", zap.Int("count", len(clients)))
	}
}

// readPump discards client frames and keeps the read deadline alive on pongs.
// It returns when the connection fails or closes.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
