// Package websocket pushes refresh events to open dashboard tabs.
// When an upload changes a session's working set the hub broadcasts a
// data_update message and the tab re-fetches its charts; no monitoring
// data travels over the socket.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeDataUpdate = "data_update"
)

// Message is the envelope sent to connected dashboard tabs.
type Message struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to
// them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub creates a hub. Run must be called before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Run processes register, unregister, and broadcast events until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than block
					// the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// BroadcastDataUpdate tells connected tabs that a session's working set
// changed and its charts should refresh.
func (h *Hub) BroadcastDataUpdate(sessionID string) {
	h.broadcastMessage(Message{
		Type:      TypeDataUpdate,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
}

func (h *Hub) broadcastMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("error", err.Error()),
			slog.String("type", msg.Type))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping message",
			slog.String("type", msg.Type))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
