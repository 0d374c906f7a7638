package relay

import (
	"sync"

	"rtc-relay/internal/models"
)

// Registry is the transport layer's own view of which connections are live
// and which rooms each one has joined. Membership reconciliation treats it
// as the ground truth when pruning stale participant rows.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Remove drops the connection and returns the room keys it had joined.
func (r *Registry) Remove(c *Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, c.ID)

	var keys []string
	for roomKey, members := range r.rooms {
		if _, ok := members[c.ID]; ok {
			delete(members, c.ID)
			keys = append(keys, roomKey)
			if len(members) == 0 {
				delete(r.rooms, roomKey)
			}
		}
	}
	return keys
}

func (r *Registry) JoinRoom(roomKey string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomKey] = members
	}
	members[c.ID] = c
}

func (r *Registry) LeaveRoom(roomKey string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[roomKey]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(r.rooms, roomKey)
		}
	}
}

func (r *Registry) Get(connectionID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connectionID]
	return c, ok
}

// LiveIDs returns the connection ids of every live connection, room joined
// or not.
func (r *Registry) LiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// Broadcast delivers an event to every connection joined to roomKey.
func (r *Registry) Broadcast(roomKey string, ev models.Event) {
	r.broadcast(roomKey, "", ev)
}

// BroadcastExcept delivers an event to every connection in roomKey except
// the one identified by exceptID.
func (r *Registry) BroadcastExcept(roomKey, exceptID string, ev models.Event) {
	r.broadcast(roomKey, exceptID, ev)
}

func (r *Registry) broadcast(roomKey, exceptID string, ev models.Event) {
	r.mu.RLock()
	members := make([]*Client, 0, len(r.rooms[roomKey]))
	for id, c := range r.rooms[roomKey] {
		if id != exceptID {
			members = append(members, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range members {
		c.Send(ev)
	}
}

// SendTo delivers an event to one connection. Reports false when the target
// is gone; signaling is best-effort, so callers treat that as a no-op.
func (r *Registry) SendTo(connectionID string, ev models.Event) bool {
	c, ok := r.Get(connectionID)
	if !ok {
		return false
	}
	c.Send(ev)
	return true
}
