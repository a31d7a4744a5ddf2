// Package events fans mutation notifications out to connected clients over
// websockets. Delivery is targeted: each event carries a recipient set, and
// only sockets belonging to those users receive it. Per-connection send
// queues are FIFO, so one client always observes events in dispatch order.
package events

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Event is the envelope pushed to clients.
type Event struct {
	Type      string         `json:"type"`
	ActorID   string         `json:"actorId"`
	ProjectID string         `json:"projectId,omitempty"`
	BoardID   string         `json:"boardId,omitempty"`
	ListID    string         `json:"listId,omitempty"`
	CardID    string         `json:"cardId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

type delivery struct {
	recipients map[string]bool
	message    []byte
}

// Hub owns the client registry. All registry access happens on the Run
// goroutine, so no mutex is needed.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	deliveries chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. Call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
		case d := <-h.deliveries:
			for c := range h.clients {
				if !d.recipients[c.userID] {
					continue
				}
				select {
				case c.send <- d.message:
				default:
					// Queue full means the client stopped reading.
					delete(h.clients, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

func (h *Hub) Close() {
	close(h.done)
}

// attach hands a client to the Run loop. Returns false once the hub has shut
// down, since nothing would ever drain the register channel.
func (h *Hub) attach(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach removes a client. Safe to call after Close, when Run has already
// returned and closed every send channel.
func (h *Hub) detach(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Deliver queues ev for every user in recipients. It never blocks the
// caller beyond the hub's internal buffer.
func (h *Hub) Deliver(ev Event, recipients []string) {
	if len(recipients) == 0 {
		return
	}
	set := make(map[string]bool, len(recipients))
	for _, id := range recipients {
		set[id] = true
	}
	message, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal %s: %v", ev.Type, err)
		return
	}
	select {
	case h.deliveries <- delivery{recipients: set, message: message}:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS upgrades an authenticated request to a websocket and attaches it
// to the hub under userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: upgrade: %v", err)
		return
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.attach(c) {
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(h)
}

// readPump discards client frames; the stream is server-push only. It exists
// to notice closes and answer pings.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.detach(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
