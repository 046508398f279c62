// Package ws delivers realtime notifications to connected clients
// over WebSockets. Delivery is fire-and-forget: a user with no open
// connection simply misses the notification, and a slow client has its
// connection dropped rather than blocking the hub.
package ws

import (
	"encoding/json"
	"log"
	"time"
)

// Notification is the JSON payload pushed to clients.
type Notification struct {
	Type       string `json:"type"` // e.g. task_assigned, task_status_changed
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	ProjectID  string `json:"project_id"`
	Message    string `json:"message"`
	ActorID    uint64 `json:"actor_id"`
	SentAt     string `json:"sent_at"`
}

// targeted couples a serialized notification with its recipients.
type targeted struct {
	userIDs []uint64
	payload []byte
}

// Hub maintains the set of active clients grouped by user id and
// routes notifications to them. All client-set mutation happens on the
// Run goroutine; other goroutines communicate through channels only.
type Hub struct {
	clients    map[uint64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	send       chan targeted
	broadcast  chan []byte
}

// NewHub constructs an idle hub; call Run on its own goroutine to
// start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan targeted, 64),
		broadcast:  make(chan []byte, 64),
	}
}

// Run processes register/unregister/send messages until the process
// exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.clients[c.UserID] == nil {
				h.clients[c.UserID] = make(map[*Client]bool)
			}
			h.clients[c.UserID][c] = true

		case c := <-h.unregister:
			if set, ok := h.clients[c.UserID]; ok && set[c] {
				delete(set, c)
				close(c.Send)
				if len(set) == 0 {
					delete(h.clients, c.UserID)
				}
			}

		case t := <-h.send:
			for _, uid := range t.userIDs {
				for c := range h.clients[uid] {
					select {
					case c.Send <- t.payload:
					default:
						// Slow client: drop the connection instead of blocking the hub.
						delete(h.clients[uid], c)
						close(c.Send)
					}
				}
			}

		case payload := <-h.broadcast:
			for uid, set := range h.clients {
				for c := range set {
					select {
					case c.Send <- payload:
					default:
						delete(h.clients[uid], c)
						close(c.Send)
					}
				}
			}
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) { h.register <- c }

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Notify pushes a notification to every open connection of the given
// users. It never blocks on client I/O and never returns an error;
// failures are logged and dropped.
func (h *Hub) Notify(userIDs []uint64, n Notification) {
	if len(userIDs) == 0 {
		return
	}
	if n.SentAt == "" {
		n.SentAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("ws: marshal notification: %v", err)
		return
	}
	h.send <- targeted{userIDs: userIDs, payload: payload}
}

// Broadcast pushes a raw payload to every open connection. Used by the
// activity consumer to mirror the activity feed to connected clients.
func (h *Hub) Broadcast(payload []byte) {
	if len(payload) == 0 {
		return
	}
	h.broadcast <- payload
}
