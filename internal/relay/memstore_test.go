package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rtc-relay/internal/models"

	"github.com/google/uuid"
)

// memStore implements database.Store with the same atomic-operation
// semantics as the Postgres store, so the coordinator can be exercised
// without a database.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	rooms    []*memRoom
	messages []*models.Message
}

type memRoom struct {
	id           string
	roomKey      string
	isActive     bool
	createdAt    time.Time
	participants []models.Participant
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*models.User)}
}

func (s *memStore) Close() error { return nil }

func (s *memStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	return user, nil
}

func (s *memStore) findActive(roomKey string) *memRoom {
	for _, room := range s.rooms {
		if room.roomKey == roomKey && room.isActive {
			return room
		}
	}
	return nil
}

func (s *memStore) findByID(roomID string) *memRoom {
	for _, room := range s.rooms {
		if room.id == roomID {
			return room
		}
	}
	return nil
}

func (s *memStore) toModel(room *memRoom) *models.Room {
	participants := make([]models.Participant, len(room.participants))
	copy(participants, room.participants)
	return &models.Room{
		ID:           room.id,
		RoomKey:      room.roomKey,
		IsActive:     room.isActive,
		Participants: participants,
		CreatedAt:    room.createdAt,
	}
}

func (s *memStore) FindActiveRoom(ctx context.Context, roomKey string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.findActive(roomKey)
	if room == nil {
		return nil, nil
	}
	return s.toModel(room), nil
}

func (s *memStore) CreateSession(ctx context.Context, roomKey string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.findActive(roomKey); existing != nil {
		return s.toModel(existing), nil
	}
	room := &memRoom{
		id:        uuid.NewString(),
		roomKey:   roomKey,
		isActive:  true,
		createdAt: time.Now(),
	}
	s.rooms = append(s.rooms, room)
	return s.toModel(room), nil
}

func (s *memStore) GetOrCreateRoom(ctx context.Context, roomKey string) (*models.Room, error) {
	s.mu.Lock()
	if room := s.findActive(roomKey); room != nil {
		defer s.mu.Unlock()
		return s.toModel(room), nil
	}
	for i := len(s.rooms) - 1; i >= 0; i-- {
		if s.rooms[i].roomKey == roomKey {
			defer s.mu.Unlock()
			return s.toModel(s.rooms[i]), nil
		}
	}
	s.mu.Unlock()
	return s.CreateSession(ctx, roomKey)
}

func (s *memStore) DeactivateRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room := s.findByID(roomID); room != nil {
		room.isActive = false
	}
	return nil
}

func (s *memStore) DeactivateRoomIfEmpty(ctx context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.findByID(roomID)
	if room == nil || !room.isActive || len(room.participants) > 0 {
		return false, nil
	}
	room.isActive = false
	return true, nil
}

func (s *memStore) PruneParticipants(ctx context.Context, roomID string, live []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.findByID(roomID)
	if room == nil {
		return nil, nil
	}

	liveSet := make(map[string]bool, len(live))
	for _, id := range live {
		liveSet[id] = true
	}

	var pruned []string
	kept := room.participants[:0]
	for _, p := range room.participants {
		if liveSet[p.ConnectionID] {
			kept = append(kept, p)
		} else {
			pruned = append(pruned, p.ConnectionID)
		}
	}
	room.participants = kept
	return pruned, nil
}

func (s *memStore) UpsertParticipant(ctx context.Context, roomID string, p models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.findByID(roomID)
	if room == nil {
		return fmt.Errorf("no such room %s", roomID)
	}
	for i := range room.participants {
		if room.participants[i].ConnectionID == p.ConnectionID {
			room.participants[i] = p
			return nil
		}
	}
	room.participants = append(room.participants, p)
	return nil
}

func (s *memStore) RemoveParticipant(ctx context.Context, roomID, connectionID string) (*models.Participant, []models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.findByID(roomID)
	if room == nil {
		return nil, nil, fmt.Errorf("no such room %s", roomID)
	}

	var removed *models.Participant
	kept := room.participants[:0]
	for _, p := range room.participants {
		if p.ConnectionID == connectionID {
			entry := p
			removed = &entry
		} else {
			kept = append(kept, p)
		}
	}
	room.participants = kept

	remaining := make([]models.Participant, len(room.participants))
	copy(remaining, room.participants)
	return removed, remaining, nil
}

func (s *memStore) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.findByID(roomID)
	if room == nil {
		return []models.Participant{}, nil
	}
	participants := make([]models.Participant, len(room.participants))
	copy(participants, room.participants)
	return participants, nil
}

func (s *memStore) RoomsWithConnection(ctx context.Context, connectionID string) ([]*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Room
	for _, room := range s.rooms {
		if !room.isActive {
			continue
		}
		for _, p := range room.participants {
			if p.ConnectionID == connectionID {
				result = append(result, s.toModel(room))
				break
			}
		}
	}
	return result, nil
}

func (s *memStore) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	s.messages = append(s.messages, &stored)
	return &stored, nil
}

func (s *memStore) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Message
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			result = append(result, msg)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// activeSessionCount reports how many active sessions exist for roomKey.
// The relay must never let this exceed one.
func (s *memStore) activeSessionCount(roomKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, room := range s.rooms {
		if room.roomKey == roomKey && room.isActive {
			count++
		}
	}
	return count
}
