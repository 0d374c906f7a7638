package relay

import (
	"context"

	"rtc-relay/internal/models"
)

func newTestRelay() (*Relay, *memStore) {
	store := newMemStore()
	return NewRelay(store), store
}

// newTestClient admits a connection-less client so handlers can be driven
// directly and outbound events read off the send buffer.
func newTestClient(r *Relay, id, name string) *Client {
	c := NewClient(id, models.Identity{
		UserID: "user-" + id,
		Name:   name,
		Email:  name + "@example.com",
	}, nil, r)
	r.Admit(c)
	return c
}

func join(r *Relay, c *Client, roomKey string) {
	r.HandleJoin(context.Background(), c, models.JoinPayload{
		RoomKey: roomKey,
		UserID:  c.Identity.UserID,
		Name:    c.Identity.Name,
		Email:   c.Identity.Email,
	})
}

// drain reads every event currently buffered for the client.
func drain(c *Client) []models.Event {
	var events []models.Event
	for {
		select {
		case ev := <-c.send:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func eventsNamed(events []models.Event, name string) []models.Event {
	var matched []models.Event
	for _, ev := range events {
		if ev.Name == name {
			matched = append(matched, ev)
		}
	}
	return matched
}

func lastParticipants(events []models.Event) []models.Participant {
	updates := eventsNamed(events, models.EventRoomParticipants)
	if len(updates) == 0 {
		return nil
	}
	update := updates[len(updates)-1].Data.(models.ParticipantsUpdate)
	return update.Participants
}
