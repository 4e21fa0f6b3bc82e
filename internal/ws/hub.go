package ws

import (
	"sync"

	"tasker/internal/metrics"
)

// Hub tracks the open connections per user.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{users: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]struct{})
	}
	h.users[c.UserID][c] = struct{}{}
	metrics.WSClients.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.users[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.UserID)
	}
	metrics.WSClients.Dec()
}

// Count returns the user's open connections.
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Broadcast sends a message to every connection of the user.
func (h *Hub) Broadcast(userID, msgType string, data any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Emit(msgType, data)
	}
}

// CloseAll closes every connection, e.g. on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.users {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.Close()
	}
}
