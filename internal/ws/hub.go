package ws

import (
	"sync"

	"github.com/quickmoney/chat-service/internal/metrics"
)

// Hub is the room-membership registry: a lock-guarded multimap from
// room id to the connections joined to it. Join, leave and broadcast
// are all safe to call concurrently.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Connection]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Connection]struct{})}
}

// Join adds c to the room's broadcast group. Joining twice is a no-op.
func (h *Hub) Join(roomID string, c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Connection]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
}

// Remove drops c from every room it joined. Called on disconnect.
func (h *Hub) Remove(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast sends payload to every connection in the room, including
// the originator if it joined. Delivery is best-effort: a connection
// with a full send buffer drops the event.
func (h *Hub) Broadcast(roomID string, payload any) {
	h.broadcast(roomID, nil, payload)
}

// BroadcastExcept is Broadcast minus one connection, used for typing
// indicators which must not echo back to their origin.
func (h *Hub) BroadcastExcept(roomID string, skip *Connection, payload any) {
	h.broadcast(roomID, skip, payload)
}

func (h *Hub) broadcast(roomID string, skip *Connection, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	metrics.Broadcasts.Inc()
	for c := range members {
		if c == skip {
			continue
		}
		c.Send(payload)
	}
}

// RoomSize reports the current membership count of a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
