// Package websocket fans review events out to connected admins and teachers.
package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/rs/zerolog"
)

// Client is one connected reviewer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// quit is closed by the hub when the client is dropped. send is never
	// closed, so writers only need to watch quit.
	quit chan struct{}
	user *model.User
}

// Hub keeps the set of connected reviewers and broadcasts events to them.
// Clients that cannot keep up are dropped.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	count      atomic.Int64
	log        zerolog.Logger
}

// NewHub creates a Hub. Call Run before serving clients.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "review_hub").Logger(),
	}
}

// Run is the hub loop. It returns when ctx is done, dropping every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.log.Info().Str("user_id", c.user.ID.String()).Msg("Reviewer connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Info().Str("user_id", c.user.ID.String()).Msg("Reviewer disconnected")
			}
		case frame := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.log.Warn().Str("user_id", c.user.ID.String()).Msg("Slow reviewer dropped")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.quit)
	h.count.Add(-1)
}

// Clients returns the number of connected reviewers.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Notify publishes an event to every connected reviewer. It never blocks;
// events are discarded when the broadcast queue is full.
func (h *Hub) Notify(event string, data any) {
	frame, err := encode(Event(event), data)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		h.log.Warn().Str("event", event).Msg("Broadcast queue full, event dropped")
	}
}

// Serve registers conn for user and blocks until the connection closes.
func (h *Hub) Serve(conn *websocket.Conn, user *model.User) {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		quit: make(chan struct{}),
		user: user,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	c.reply(EventConnected, ConnectedData{UserID: user.ID.String(), Role: string(user.Role)})
	go c.writePump()
	c.readPump()
}

// readPump consumes client frames until the connection fails. Only ping
// actions are understood.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var env RequestEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Action != ActionPing {
			c.reply(EventError, ErrorData{Error: "unknown action"})
			continue
		}
		c.reply(EventPong, nil)
	}
}

// reply queues a frame for this client only.
func (c *Client) reply(event Event, data interface{}) {
	frame, err := encode(event, data)
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	case <-c.quit:
	default:
	}
}

// writePump is the only writer of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.quit:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			if err := writeFrame(c.conn, frame); err != nil {
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
