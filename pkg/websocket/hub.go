package websocket

import (
	"encoding/json"
	"sync"

	"github.com/zapshift/parcel-delivery/pkg/logger"
)

// Hub maintains active client connections and broadcasts tracking events
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *logger.Logger
}

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered",
				logger.String("client_id", client.ID),
				logger.String("client_type", client.ClientType),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Client unregistered",
					logger.String("client_id", client.ID),
				)
			}
			h.mu.Unlock()
		}
	}
}

// Register registers a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToParcel sends a message to every client subscribed to one of
// the given subjects (parcel id or tracking id).
func (h *Hub) BroadcastToParcel(message Message, subjects ...string) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal parcel message", logger.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		for _, subject := range subjects {
			if subject == "" || !client.IsSubscribed(subject) {
				continue
			}
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Failed to send parcel message to client",
					logger.String("subject", subject),
					logger.String("client_id", client.ID),
				)
			}
			break
		}
	}
}

// BroadcastToType sends a message to all clients of a specific type
// ("sender", "rider" or "dashboard").
func (h *Hub) BroadcastToType(clientType string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", logger.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if client.ClientType == clientType {
			select {
			case client.Send <- data:
				count++
			default:
				h.logger.Warn("Failed to send message to client",
					logger.String("client_type", clientType),
					logger.String("client_id", client.ID),
				)
			}
		}
	}

	h.logger.Debug("Message broadcast to client type",
		logger.String("client_type", clientType),
		logger.Int("count", count),
	)
}

// ActiveConnections returns the number of active connections
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
