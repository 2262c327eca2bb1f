package http

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one registered websocket connection. All writes to the socket
// go through the send channel and a single writer goroutine, which is what
// keeps Gorilla's one-writer rule.
type client struct {
	id   string
	conn *websocket.Conn
	send chan outboundMessage
}

// Hub tracks connections and their room membership and fans events out to
// room groups. It is the game engine's Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
	}
}

// Register adds a connection, starts its writer, and returns the assigned
// connection id.
func (h *Hub) Register(conn *websocket.Conn) string {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan outboundMessage, 32),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go func() {
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write to %s: %v", c.id, err)
				return
			}
		}
	}()
	return c.id
}

// Unregister drops a connection from the hub and any room group, and stops
// its writer. Idempotent.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for roomID, group := range h.rooms {
		if _, in := group[connID]; in {
			delete(group, connID)
			if len(group) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	// Closed under the write lock so no sender holding the read lock can
	// race the close.
	close(c.send)
}

// JoinRoom moves a connection into a room group, leaving any previous one.
func (h *Hub) JoinRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	for id, group := range h.rooms {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.rooms, id)
		}
	}
	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[string]*client)
		h.rooms[roomID] = group
	}
	group[connID] = c
}

// LeaveRoom detaches a connection from its room group without closing it.
func (h *Hub) LeaveRoom(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, group := range h.rooms {
		if _, in := group[connID]; in {
			delete(group, connID)
			if len(group) == 0 {
				delete(h.rooms, id)
			}
		}
	}
}

// BroadcastToRoom fans an event out to every connection in the room. A
// client whose buffer is full misses the message rather than stalling the
// room.
func (h *Hub) BroadcastToRoom(roomID, event string, payload any) {
	msg := outboundMessage{Type: event, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		select {
		case c.send <- msg:
		default:
			log.Printf("ws client %s lagging, dropped %s", c.id, event)
		}
	}
}

// Send delivers an event to a single connection. Reports false if the
// connection is gone or its buffer is full.
func (h *Hub) Send(connID, event string, payload any) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	select {
	case c.send <- outboundMessage{Type: event, Payload: payload}:
		return true
	default:
		log.Printf("ws client %s lagging, dropped %s", connID, event)
		return false
	}
}
