package services

import (
	"context"
	"fmt"

	"rtc-relay/internal/database"
	"rtc-relay/internal/models"
)

const defaultHistoryLimit = 50

type RoomService struct {
	db       database.Store
	maxLimit int
}

func NewRoomService(db database.Store, maxLimit int) *RoomService {
	return &RoomService{db: db, maxLimit: maxLimit}
}

func (s *RoomService) GetOrCreateRoom(ctx context.Context, roomKey string) (*models.Room, error) {
	if roomKey == "" {
		return nil, fmt.Errorf("missing roomKey")
	}
	return s.db.GetOrCreateRoom(ctx, roomKey)
}

// GetParticipants lists the current active session's participants. A room
// with no live session has none.
func (s *RoomService) GetParticipants(ctx context.Context, roomKey string) ([]models.Participant, error) {
	if roomKey == "" {
		return nil, fmt.Errorf("missing roomKey")
	}

	room, err := s.db.FindActiveRoom(ctx, roomKey)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return []models.Participant{}, nil
	}
	return room.Participants, nil
}

// ListMessages returns history for the current active session only,
// oldest first. Messages from an earlier session under the same roomKey
// never leak into a later one.
func (s *RoomService) ListMessages(ctx context.Context, roomKey string, limit int) ([]*models.Message, error) {
	if roomKey == "" {
		return nil, fmt.Errorf("missing roomKey")
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	room, err := s.db.FindActiveRoom(ctx, roomKey)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return []*models.Message{}, nil
	}

	messages, err := s.db.ListSessionMessages(ctx, room.ID, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}
