package session

import "sync"

// Hub is the process-wide room registry. Rooms are created implicitly on
// first join and evicted when their last member leaves; broadcast locking
// stays per room so unrelated rooms never contend.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

// Join adds the client to the room for roomID, creating the room if needed.
func (h *Hub) Join(roomID string, c *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = NewRoom(roomID)
		h.rooms[roomID] = r
	}
	r.Join(c)
	return r
}

// Leave removes the client from its room and evicts the room once empty.
func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if r.Leave(c) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) Get(roomID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	return r, ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
