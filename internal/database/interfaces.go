package database

import (
	"context"

	"rtc-relay/internal/models"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type RoomRepository interface {
	// FindActiveRoom returns the active session for roomKey with its
	// participants, or nil when no session is active.
	FindActiveRoom(ctx context.Context, roomKey string) (*models.Room, error)

	// CreateSession opens a new active session for roomKey. If another
	// connection raced us to it, the already-created session is returned
	// instead.
	CreateSession(ctx context.Context, roomKey string) (*models.Room, error)

	// GetOrCreateRoom is the REST-facing fetch-or-create: the active session
	// if one exists, else the most recent one, else a fresh session.
	GetOrCreateRoom(ctx context.Context, roomKey string) (*models.Room, error)

	DeactivateRoom(ctx context.Context, roomID string) error

	// DeactivateRoomIfEmpty atomically deactivates the session when its
	// participant list is empty. Reports whether it did.
	DeactivateRoomIfEmpty(ctx context.Context, roomID string) (bool, error)

	// PruneParticipants removes every participant of the session whose
	// connection id is not in live, returning the pruned connection ids.
	PruneParticipants(ctx context.Context, roomID string, live []string) ([]string, error)

	UpsertParticipant(ctx context.Context, roomID string, p models.Participant) error

	// RemoveParticipant deletes the entry for connectionID and returns the
	// removed entry (nil if it was not present) plus the remaining list.
	RemoveParticipant(ctx context.Context, roomID, connectionID string) (*models.Participant, []models.Participant, error)

	ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error)

	// RoomsWithConnection returns every active session that still lists
	// connectionID as a participant.
	RoomsWithConnection(ctx context.Context, connectionID string) ([]*models.Room, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error)
}

type Store interface {
	UserRepository
	RoomRepository
	MessageRepository
	Close() error
}
