package session

import (
	"sync"

	"docsync/internal/models"
)

// Room is the broadcast group for one document id. Membership is a set, so
// joining twice is a no-op, and synchronization is scoped to this room only.
type Room struct {
	ID string

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewRoom(id string) *Room {
	return &Room{ID: id, clients: make(map[*Client]struct{})}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// Leave removes the client and reports how many members remain.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

func (r *Room) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast delivers frame to every current member except excluding.
// Best effort: a member joining after the call does not receive it.
// Self-exclusion lives here, not in per-handler checks.
func (r *Room) Broadcast(frame models.Outbound, excluding *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		if c == excluding {
			continue
		}
		c.Send(frame)
	}
}
