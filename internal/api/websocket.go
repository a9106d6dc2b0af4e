package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oakfield/hearth-core/internal/infrastructure/config"
	"github.com/oakfield/hearth-core/internal/infrastructure/logging"
)

// wsSendBufferSize is the per-client outbound queue. Clients that fall
// this far behind are disconnected rather than blocking the hub.
const wsSendBufferSize = 256

// WSMessage is the envelope for every message the hub sends.
type WSMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Client-to-server message types.
const (
	wsTypeSubscribe   = "subscribe"
	wsTypeUnsubscribe = "unsubscribe"
	wsTypePing        = "ping"
)

// Server-to-client message types.
const (
	wsTypeEvent = "event"
	wsTypeAck   = "ack"
	wsTypePong  = "pong"
	wsTypeError = "error"
)

// Hub tracks connected WebSocket clients and fans out broadcasts.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.Mutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected WebSocket client.
type WSClient struct {
	conn     *websocket.Conn
	send     chan []byte
	username string

	mu            sync.Mutex
	closed        bool
	subscriptions map[string]struct{}
}

// NewHub creates a WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "clients", count)
}

// Unregister removes a client and closes its send channel exactly once.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if present {
		c.mu.Lock()
		if !c.closed {
			c.closed = true
			close(c.send)
		}
		c.mu.Unlock()
	}

	h.logger.Debug("websocket client disconnected", "clients", count)
}

// Broadcast sends an event to every client subscribed to the channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:    wsTypeEvent,
		Channel: channel,
		Payload: payload,
	})
	if err != nil {
		h.logger.Error("marshalling broadcast failed", "channel", channel, "error", err)
		return
	}
	h.send(channel, data)
}

// BroadcastRaw sends a pre-encoded payload, typically relayed from MQTT.
// The payload is embedded verbatim when it is valid JSON.
func (h *Hub) BroadcastRaw(channel, topic string, payload []byte) {
	var embedded any
	if json.Valid(payload) {
		embedded = json.RawMessage(payload)
	} else {
		embedded = string(payload)
	}

	data, err := json.Marshal(WSMessage{
		Type:    wsTypeEvent,
		Channel: channel,
		Topic:   topic,
		Payload: embedded,
	})
	if err != nil {
		h.logger.Error("marshalling broadcast failed", "channel", channel, "error", err)
		return
	}
	h.send(channel, data)
}

// send delivers an encoded frame to every subscribed client.
// The client set is snapshotted so slow clients never hold the hub lock.
func (h *Hub) send(channel string, data []byte) {
	h.mu.Lock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.subscribedTo(channel) {
			continue
		}
		if !c.trySend(data) {
			h.logger.Warn("websocket client too slow, disconnecting")
			h.Unregister(c)
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
		c.conn.Close()
	}
}

// subscribedTo reports whether the client wants messages on the channel.
func (c *WSClient) subscribedTo(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// trySend queues a frame without blocking. Returns false when the
// client's buffer is full or the channel is closed.
func (c *WSClient) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin access is governed by the ticket requirement, not
	// the Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket upgrades the connection after validating the ticket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	username, ok := validateTicket(ticket)
	if !ok {
		writeUnauthorized(w, "valid ticket required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		username:      username,
		subscriptions: make(map[string]struct{}),
	}

	s.hub.Register(client)

	go s.writePump(client)
	go s.readPump(client)
}

// readPump processes inbound client messages until the connection drops.
func (s *Server) readPump(c *WSClient) {
	defer func() {
		s.hub.Unregister(c)
		c.conn.Close()
	}()

	if s.wsCfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	}
	pongTimeout := s.wsCfg.GetPongTimeout()
	pingInterval := s.wsCfg.GetPingInterval()
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.trySend(mustMarshal(WSMessage{Type: wsTypeError, Payload: "invalid message"}))
			continue
		}

		switch msg.Type {
		case wsTypeSubscribe:
			c.mu.Lock()
			c.subscriptions[msg.Channel] = struct{}{}
			c.mu.Unlock()
			c.trySend(mustMarshal(WSMessage{Type: wsTypeAck, Channel: msg.Channel}))
		case wsTypeUnsubscribe:
			c.mu.Lock()
			delete(c.subscriptions, msg.Channel)
			c.mu.Unlock()
			c.trySend(mustMarshal(WSMessage{Type: wsTypeAck, Channel: msg.Channel}))
		case wsTypePing:
			c.trySend(mustMarshal(WSMessage{Type: wsTypePong}))
		default:
			c.trySend(mustMarshal(WSMessage{Type: wsTypeError, Payload: "unknown message type"}))
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (s *Server) writePump(c *WSClient) {
	ticker := time.NewTicker(s.wsCfg.GetPingInterval())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// mustMarshal encodes a message that cannot fail to marshal.
func mustMarshal(msg WSMessage) []byte {
	data, _ := json.Marshal(msg)
	return data
}
