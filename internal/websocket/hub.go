package websocket

import (
	"encoding/json"
	"sync"

	"github.com/sitrack/sitrack-gin/internal/metrics"
)

// ChangeMessage is the envelope pushed to connected dashboards when a
// tracked table changes. Payload carries the affected row.
type ChangeMessage struct {
	Table     string      `json:"table"`
	EventType string      `json:"eventType"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Hub fans messages out to every connected dashboard session.
type Hub struct {
	clients map[*Client]bool

	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run processes register, unregister and broadcast requests. It is
// meant to run on its own goroutine for the lifetime of the server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			metrics.SetWebsocketClients(len(h.clients))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			metrics.SetWebsocketClients(len(h.clients))
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer, drop the connection.
					close(client.Send)
					delete(h.clients, client)
				}
			}
			metrics.SetWebsocketClients(len(h.clients))
			h.mu.Unlock()
		}
	}
}

// PublishChange broadcasts a table change to all dashboards. Payloads
// that cannot be encoded are dropped.
func (h *Hub) PublishChange(table, eventType string, payload interface{}) {
	data, err := json.Marshal(ChangeMessage{
		Table:     table,
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		return
	}
	h.Broadcast <- data
}

// BroadcastToUser sends a message only to sessions of the given user.
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// ClientCount reports the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
