package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

// Client is one connected display. A client always watches its own session
// and may additionally subscribe to other session IDs (shared rides).
type Client struct {
	ID       string
	Send     chan []byte
	sessions map[string]struct{}
	mu       sync.RWMutex
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:       id,
		Send:     make(chan []byte, bufferSize),
		sessions: make(map[string]struct{}),
	}
}

func (c *Client) AddSessions(sessionIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range sessionIDs {
		c.sessions[id] = struct{}{}
	}
}

func (c *Client) RemoveSessions(sessionIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range sessionIDs {
		delete(c.sessions, id)
	}
}

func (c *Client) GetSessions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Hub fans tracking updates out to the clients watching each session.
type Hub struct {
	mu             sync.RWMutex
	clients        map[*Client]struct{}
	sessionClients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan domain.TrackingUpdate

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]struct{}),
		sessionClients: make(map[string]map[*Client]struct{}),
		register:       make(chan *Client, 16),
		unregister:     make(chan *Client, 16),
		broadcast:      make(chan domain.TrackingUpdate, 256),
		logger:         logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", len(h.clients))

		case client := <-h.unregister:
			h.removeClient(client)

		case update := <-h.broadcast:
			h.fanout(update)
		}
	}
}

func (h *Hub) Subscribe(client *Client, sessionIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.AddSessions(sessionIDs)

	for _, id := range sessionIDs {
		if h.sessionClients[id] == nil {
			h.sessionClients[id] = make(map[*Client]struct{})
		}
		h.sessionClients[id][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, sessionIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.RemoveSessions(sessionIDs)

	for _, id := range sessionIDs {
		if h.sessionClients[id] != nil {
			delete(h.sessionClients[id], client)
			if len(h.sessionClients[id]) == 0 {
				delete(h.sessionClients, id)
			}
		}
	}
}

// Broadcast enqueues an update for fanout. Never blocks; under backpressure
// an update is dropped, the next state change supersedes it anyway.
func (h *Hub) Broadcast(update domain.TrackingUpdate) {
	select {
	case h.broadcast <- update:
	default:
		h.logger.Warn("broadcast channel full, dropping update", "session_id", update.SessionID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UpdateMessage is the wire envelope for a tracking update.
type UpdateMessage struct {
	Type    string                `json:"type"`
	Payload domain.TrackingUpdate `json:"payload"`
}

func (h *Hub) fanout(update domain.TrackingUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.sessionClients[update.SessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(UpdateMessage{Type: "update", Payload: update})
	if err != nil {
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	for _, id := range client.GetSessions() {
		if h.sessionClients[id] != nil {
			delete(h.sessionClients[id], client)
			if len(h.sessionClients[id]) == 0 {
				delete(h.sessionClients, id)
			}
		}
	}

	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.sessionClients = make(map[string]map[*Client]struct{})
}
