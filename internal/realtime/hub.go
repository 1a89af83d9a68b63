package realtime

import (
	"context"
	"encoding/json"
	"log"
)

// Message is the wire envelope for every push: an event name plus the full
// snapshot payload. Clients always replace their view with the payload;
// there is no per-record diffing.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans broadcast messages out to every connected dashboard client and
// hands newly connected clients the current snapshots. Delivery is
// at-most-once: a client whose send buffer is full is dropped and will
// resync on reconnect.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// snapshot produces the initial messages for a new connection.
	snapshot func() []Message
}

func NewHub(snapshot func() []Message) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		snapshot:   snapshot,
	}
}

// Broadcast queues a message for every connected client. Implements
// lifecycle.Broadcaster.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		log.Printf("realtime: failed to marshal %s broadcast: %v", event, err)
		return
	}
	h.broadcast <- data
}

// Run is the hub loop; it owns the client set and is the only goroutine
// that touches it. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			if h.snapshot != nil {
				for _, msg := range h.snapshot() {
					data, err := json.Marshal(msg)
					if err != nil {
						log.Printf("realtime: failed to marshal %s snapshot: %v", msg.Event, err)
						continue
					}
					h.send(client, data)
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				h.send(client, data)
			}
		}
	}
}

// send delivers without blocking the hub loop; a client that cannot keep up
// is disconnected rather than stalling everyone else.
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		delete(h.clients, client)
		close(client.send)
	}
}
