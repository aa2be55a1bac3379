// Package hub tracks the set of connected websocket clients and pushes
// typed, normalized messages to all of them, best effort.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"mpdfm/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one connected subscriber. Membership in the broadcast set is
// the only per-client state.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex // guards send against concurrent close
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded websocket connection.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// Hub delivers messages to every currently connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates an empty hub. Run must be called before use.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the hub loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case frame := <-h.broadcast:
			h.fanOut(frame)
		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop shuts down the hub and closes every client send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client to the broadcast set.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the broadcast set.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast normalizes and frames data, then pushes it to every connected
// client independently. A failed or saturated sink is dropped and logged;
// it never faults the loop or surfaces to the caller.
func (h *Hub) Broadcast(msgType string, data any) {
	frame, err := encodeMessage(msgType, data)
	if err != nil {
		logger.Error("failed to encode broadcast message",
			logger.ErrorField(err),
			logger.String("type", msgType))
		return
	}
	logger.Debug("broadcast", logger.String("type", msgType))
	select {
	case h.broadcast <- frame:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	logger.Info("client connected", logger.String("client", client.ID))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closeSend()
	logger.Info("client disconnected", logger.String("client", client.ID))
}

func (h *Hub) fanOut(frame []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if !client.enqueue(frame) {
			logger.Warn("dropping slow client", logger.String("client", client.ID))
			h.removeClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.closeSend()
	}
	h.clients = make(map[*Client]bool)
}

// enqueue queues a frame for the write pump unless the client has been
// dropped or its buffer is full. Queueing and closeSend share the client
// mutex so a frame is never sent on a closed channel.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend marks the client dropped and closes its send channel exactly
// once. Only the hub calls this, on removal or shutdown.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Send normalizes, frames and queues a message for this client only. Used
// for request/response style replies, as opposed to Broadcast.
func (c *Client) Send(msgType string, data any) error {
	frame, err := encodeMessage(msgType, data)
	if err != nil {
		return err
	}
	logger.Debug("send", logger.String("type", msgType), logger.String("client", c.ID))
	if !c.enqueue(frame) {
		// dropped or buffer full: delivery is best effort
		logger.Warn("dropping reply", logger.String("client", c.ID))
	}
	return nil
}

// ReadPump reads inbound envelopes and hands them to handler. A malformed
// envelope is answered with an ERROR message to this client only.
func (c *Client) ReadPump(handler func(client *Client, req Request)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.String("client", c.ID))
			}
			return
		}

		var req Request
		if err := json.Unmarshal(raw, &req); err != nil || req.Type == "" {
			logger.Warn("invalid client message",
				logger.ErrorField(err),
				logger.String("client", c.ID))
			c.Send(MsgError, map[string]string{"message": "invalid message"})
			continue
		}

		handler(c, req)
	}
}

// WritePump flushes queued frames to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Warn("failed to send to client",
					logger.ErrorField(err),
					logger.String("client", c.ID))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
