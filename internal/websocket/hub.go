// Package websocket fans store-change notifications out to connected
// clients so UIs can re-render from fresh snapshots.
package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/atlas-voyages/travelstore/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is the wire form of a change notification. Payloads stay
// server-side; clients re-fetch the collection they care about.
type Message struct {
	Type      string       `json:"type"`
	Topic     events.Topic `json:"topic"`
	Timestamp int64        `json:"timestamp"`
}

// Client represents one websocket connection and the topics it watches.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[events.Topic]bool
}

// wants reports whether the client subscribed to the topic. An empty
// topic set means everything.
func (c *Client) wants(topic events.Topic) bool {
	if len(c.topics) == 0 {
		return true
	}
	return c.topics[topic]
}

// Hub manages websocket connections and relays bus events to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub subscribed to the store change bus.
func NewHub(bus *events.Bus, logger zerolog.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}

	bus.Subscribe(func(evt events.Event) {
		select {
		case h.broadcast <- evt:
		default:
			h.logger.Warn().Str("topic", string(evt.Topic)).Msg("change feed backlog full, dropping event")
		}
	})

	return h
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.logger.Debug().Int("clients", len(h.clients)).Msg("change feed client registered")
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug().Int("clients", len(h.clients)).Msg("change feed client unregistered")
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			msg := Message{
				Type:      "changed",
				Topic:     evt.Topic,
				Timestamp: evt.Timestamp,
			}
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to marshal change message")
				continue
			}

			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.wants(evt.Topic) {
					clients = append(clients, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- data:
				default:
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
				}
			}
		}
	}
}

// HandleWebSocket upgrades GET /api/ws. An optional ?topics=a,b query
// narrows the feed to specific collections.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	topics := make(map[events.Topic]bool)
	if raw := r.URL.Query().Get("topics"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			topics[events.Topic(strings.TrimSpace(t))] = true
		}
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 64),
		topics: topics,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; the feed is one-way. It exists to
// observe close frames and pong deadlines.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
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

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
