package relay

import (
	"sort"
	"sync"

	"rtc-relay/internal/models"
)

// The three registries below are process-local presenter/mesh state. They
// are created at server start, torn down with it, and only ever touched
// through the relay's handlers. Per-room entries are dropped as soon as
// they empty so rooms nobody is in cost nothing.

type sharer struct {
	ConnectionID string
	Name         string
}

// shareRegistry records at most one screen-sharer per roomKey,
// first-come-first-served with no preemption.
type shareRegistry struct {
	mu      sync.Mutex
	sharers map[string]sharer
}

func newShareRegistry() *shareRegistry {
	return &shareRegistry{sharers: make(map[string]sharer)}
}

// Start claims the sharer slot. Re-claiming your own slot is allowed. When
// a different connection holds it, Start reports false and returns the
// current holder untouched.
func (s *shareRegistry) Start(roomKey, connectionID, name string) (bool, sharer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sharers[roomKey]
	if ok && current.ConnectionID != connectionID {
		return false, current
	}

	entry := sharer{ConnectionID: connectionID, Name: name}
	s.sharers[roomKey] = entry
	return true, entry
}

// Clear releases the slot if connectionID holds it. Reports whether it did.
func (s *shareRegistry) Clear(roomKey, connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sharers[roomKey]
	if !ok || current.ConnectionID != connectionID {
		return false
	}
	delete(s.sharers, roomKey)
	return true
}

func (s *shareRegistry) Get(roomKey string) (sharer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sharers[roomKey]
	return current, ok
}

// uidRegistry maps connections to their announced alternate-transport
// identifiers, per room, so late joiners can be replayed the current set.
type uidRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[string]models.UIDMap
}

func newUIDRegistry() *uidRegistry {
	return &uidRegistry{rooms: make(map[string]map[string]models.UIDMap)}
}

func (u *uidRegistry) Set(roomKey string, mapping models.UIDMap) {
	u.mu.Lock()
	defer u.mu.Unlock()

	room, ok := u.rooms[roomKey]
	if !ok {
		room = make(map[string]models.UIDMap)
		u.rooms[roomKey] = room
	}
	room[mapping.ConnectionID] = mapping
}

func (u *uidRegistry) Remove(roomKey, connectionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if room, ok := u.rooms[roomKey]; ok {
		delete(room, connectionID)
		if len(room) == 0 {
			delete(u.rooms, roomKey)
		}
	}
}

// Snapshot returns the room's mappings ordered by connection id so replay
// is deterministic.
func (u *uidRegistry) Snapshot(roomKey string) []models.UIDMap {
	u.mu.Lock()
	defer u.mu.Unlock()

	room := u.rooms[roomKey]
	mappings := make([]models.UIDMap, 0, len(room))
	for _, m := range room {
		mappings = append(mappings, m)
	}
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].ConnectionID < mappings[j].ConnectionID
	})
	return mappings
}

// cameraRegistry tracks which connections in a room have announced mesh
// readiness.
type cameraRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[string]bool
}

func newCameraRegistry() *cameraRegistry {
	return &cameraRegistry{rooms: make(map[string]map[string]bool)}
}

// Add marks a connection ready and returns the connections that were
// already ready before it, ordered by connection id.
func (c *cameraRegistry) Add(roomKey, connectionID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomKey]
	if !ok {
		room = make(map[string]bool)
		c.rooms[roomKey] = room
	}

	others := make([]string, 0, len(room))
	for id := range room {
		if id != connectionID {
			others = append(others, id)
		}
	}
	sort.Strings(others)

	room[connectionID] = true
	return others
}

func (c *cameraRegistry) Remove(roomKey, connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if room, ok := c.rooms[roomKey]; ok {
		delete(room, connectionID)
		if len(room) == 0 {
			delete(c.rooms, roomKey)
		}
	}
}
