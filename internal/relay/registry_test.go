package relay

import (
	"encoding/json"
	"testing"

	"rtc-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLiveIDs(t *testing.T) {
	r, _ := newTestRelay()
	reg := r.Registry()

	a := newTestClient(r, "conn-a", "Alice")
	b := newTestClient(r, "conn-b", "Bob")

	assert.ElementsMatch(t, []string{"conn-a", "conn-b"}, reg.LiveIDs())

	reg.Remove(a)
	assert.ElementsMatch(t, []string{"conn-b"}, reg.LiveIDs())

	_, ok := reg.Get("conn-a")
	assert.False(t, ok)
	got, ok := reg.Get("conn-b")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestRegistryRoomBroadcast(t *testing.T) {
	r, _ := newTestRelay()
	reg := r.Registry()

	a := newTestClient(r, "conn-a", "Alice")
	b := newTestClient(r, "conn-b", "Bob")
	c := newTestClient(r, "conn-c", "Cara")

	reg.JoinRoom("r1", a)
	reg.JoinRoom("r1", b)
	reg.JoinRoom("r2", c)

	ev := models.Event{Name: "test", Data: "x"}
	reg.Broadcast("r1", ev)

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(c))

	reg.BroadcastExcept("r1", "conn-a", ev)
	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestRegistryRemoveReturnsJoinedRooms(t *testing.T) {
	r, _ := newTestRelay()
	reg := r.Registry()

	a := newTestClient(r, "conn-a", "Alice")
	reg.JoinRoom("r1", a)
	reg.JoinRoom("r2", a)

	keys := reg.Remove(a)
	assert.ElementsMatch(t, []string{"r1", "r2"}, keys)

	// Emptied room entries are dropped entirely.
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	assert.Empty(t, reg.rooms)
}

func TestRegistrySendToMissingTarget(t *testing.T) {
	r, _ := newTestRelay()
	ok := r.Registry().SendTo("nobody", models.Event{Name: "test"})
	assert.False(t, ok)
}

func TestDispatchMalformedPayloads(t *testing.T) {
	r, store := newTestRelay()
	c := newTestClient(r, "conn-a", "Alice")

	// None of these may panic, emit errors back, or mutate state.
	r.Dispatch(c, models.Envelope{Event: models.EventRoomJoin})
	r.Dispatch(c, models.Envelope{Event: models.EventRoomJoin, Data: json.RawMessage(`"not-an-object"`)})
	r.Dispatch(c, models.Envelope{Event: models.EventChatSend, Data: json.RawMessage(`{}`)})
	r.Dispatch(c, models.Envelope{Event: "no:such-event", Data: json.RawMessage(`{}`)})

	assert.Empty(t, drain(c))
	assert.Empty(t, store.rooms)
}

func TestDispatchRoutesJoin(t *testing.T) {
	r, store := newTestRelay()
	c := newTestClient(r, "conn-a", "Alice")

	r.Dispatch(c, models.Envelope{
		Event: models.EventRoomJoin,
		Data:  json.RawMessage(`{"roomKey":"r1","userId":"u1","name":"Alice","email":"a@example.com"}`),
	})

	assert.Equal(t, 1, store.activeSessionCount("r1"))
	participants := lastParticipants(drain(c))
	require.Len(t, participants, 1)
	assert.Equal(t, "Alice", participants[0].Name)
}
