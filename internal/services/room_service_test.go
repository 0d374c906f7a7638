package services

import (
	"context"
	"testing"

	"rtc-relay/internal/database"
	"rtc-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore overrides only what the service touches; anything else
// panicking is a test bug.
type fakeStore struct {
	database.Store

	activeRoom *models.Room
	messages   []*models.Message
	lastLimit  int
}

func (f *fakeStore) FindActiveRoom(ctx context.Context, roomKey string) (*models.Room, error) {
	return f.activeRoom, nil
}

func (f *fakeStore) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error) {
	f.lastLimit = limit
	return f.messages, nil
}

func TestListMessagesClampsLimit(t *testing.T) {
	store := &fakeStore{activeRoom: &models.Room{ID: "s1", RoomKey: "r1", IsActive: true}}
	s := NewRoomService(store, 200)

	tests := []struct {
		requested int
		effective int
	}{
		{0, 50},
		{-5, 50},
		{25, 25},
		{200, 200},
		{5000, 200},
	}

	for _, tt := range tests {
		_, err := s.ListMessages(context.Background(), "r1", tt.requested)
		require.NoError(t, err)
		assert.Equal(t, tt.effective, store.lastLimit)
	}
}

func TestListMessagesNoActiveSession(t *testing.T) {
	s := NewRoomService(&fakeStore{}, 200)

	// A dead session's history must not resurface.
	messages, err := s.ListMessages(context.Background(), "r1", 50)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestGetParticipantsNoActiveSession(t *testing.T) {
	s := NewRoomService(&fakeStore{}, 200)

	participants, err := s.GetParticipants(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotNil(t, participants)
	assert.Empty(t, participants)
}

func TestMissingRoomKeyRejected(t *testing.T) {
	s := NewRoomService(&fakeStore{}, 200)
	ctx := context.Background()

	_, err := s.GetOrCreateRoom(ctx, "")
	assert.Error(t, err)
	_, err = s.GetParticipants(ctx, "")
	assert.Error(t, err)
	_, err = s.ListMessages(ctx, "", 10)
	assert.Error(t, err)
}
