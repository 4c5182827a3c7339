/*
WebSocket push for notifications.

PURPOSE:
  Connected clients receive notifications the moment the sweeper creates
  them, instead of polling the inbox endpoint. Each client registers with
  its user id; the hub routes a notification to the matching connection
  and broadcasts recipient-less ones to everybody.

DESIGN:
  Standard hub/client split: the hub owns the client set and runs a single
  select loop, each client runs a read pump and a write pump. Writes to a
  slow client drop the connection rather than block the hub.
*/
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/warp/personnel-engine/hr"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains the set of active clients and routes notifications to them.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	deliver    chan hr.Notification

	mu   sync.RWMutex
	done chan struct{}
	log  logrus.FieldLogger
}

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		deliver:    make(chan hr.Notification, 64),
		done:       make(chan struct{}),
		log:        logrus.WithField("component", "ws-hub"),
	}
}

// Run processes register, unregister and delivery events until Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case n := <-h.deliver:
			h.route(n)
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes all client connections and ends the Run loop.
func (h *Hub) Stop() {
	close(h.done)
}

// NotificationCreated pushes a freshly created notification to connected
// clients. Non-blocking: if the hub's buffer is full the push is dropped,
// the inbox endpoint remains the source of truth.
func (h *Hub) NotificationCreated(n hr.Notification) {
	select {
	case h.deliver <- n:
	default:
		h.log.Warn("notification push buffer full, dropping")
	}
}

func (h *Hub) route(n hr.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal notification")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if n.UserID != nil && client.userID != *n.UserID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer, drop it. The client will reconnect.
			go func(c *wsClient) { h.unregister <- c }(client)
		}
	}
}

// wsClient is a middleman between one websocket connection and the hub.
type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
}

// ServeWs upgrades an HTTP request to a websocket connection and registers
// it with the hub under the authenticated user's id.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade failed")
		return
	}
	client := &wsClient{hub: hub, conn: conn, send: make(chan []byte, 16), userID: userID}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames and detects disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes hub messages to the connection and keeps it alive with
// pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
