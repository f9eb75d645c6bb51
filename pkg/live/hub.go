// Package live pushes new readings and alerts to websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sguter90/fieldmaestro/pkg/ingest"
	"github.com/sirupsen/logrus"
)

// Message types
const (
	TypeReading = "reading"
	TypeAlert   = "alert"
)

// Message is the envelope of every websocket frame
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     logrus.FieldLogger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger.WithField("component", "live"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.WithField("remote", client.remoteAddr()).Debug("Websocket client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.WithField("remote", client.remoteAddr()).Debug("Websocket client unregistered")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.WithField("remote", client.remoteAddr()).Warn("Websocket client too slow, removing")
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for every client. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal broadcast")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.WithField("type", msgType).Warn("Broadcast queue full, dropping message")
	}
}

// OnIngest broadcasts the stored reading and, if raised, the alert
func (h *Hub) OnIngest(_ context.Context, event ingest.Event) {
	h.Broadcast(TypeReading, event.Reading)
	if event.Alert != nil {
		h.Broadcast(TypeAlert, event.Alert)
	}
}
