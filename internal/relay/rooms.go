package relay

import (
	"context"
	"time"

	"rtc-relay/internal/models"
	"rtc-relay/pkg/logger"
)

// Admit exposes the event surface to an authenticated connection. Nothing
// in the relay sees a connection before this.
func (r *Relay) Admit(c *Client) {
	r.registry.Add(c)
	logger.Info("Connection admitted: %s user: %s", c.ID, c.Identity.Name)
}

// HandleJoin reconciles the active session for roomKey against live
// connections, creating a fresh session when none survives, then upserts
// the joiner and broadcasts the result.
func (r *Relay) HandleJoin(ctx context.Context, c *Client, p models.JoinPayload) {
	if p.RoomKey == "" || p.Name == "" {
		logger.Debug("Dropping room:join from %s: missing roomKey or name", c.ID)
		return
	}

	r.registry.JoinRoom(p.RoomKey, c)

	room, err := r.store.FindActiveRoom(ctx, p.RoomKey)
	if err != nil {
		logger.Error("room:join %s: finding active room: %v", p.RoomKey, err)
		return
	}

	if room != nil {
		// Self-healing: drop participant rows whose connections are gone
		// (crash-without-close never emitted a disconnect).
		pruned, err := r.store.PruneParticipants(ctx, room.ID, r.registry.LiveIDs())
		if err != nil {
			logger.Error("room:join %s: pruning participants: %v", p.RoomKey, err)
			return
		}
		for _, staleID := range pruned {
			r.cleanupSharer(p.RoomKey, staleID)
			r.cleanupEphemeral(p.RoomKey, staleID)
		}
		if len(pruned) > 0 {
			logger.Info("Pruned %d stale participants from %s", len(pruned), p.RoomKey)
		}

		// Re-checked against the store, not the copy read above: another
		// handler may have emptied the room while we were pruning.
		deactivated, err := r.store.DeactivateRoomIfEmpty(ctx, room.ID)
		if err != nil {
			logger.Error("room:join %s: closing stale session: %v", p.RoomKey, err)
			return
		}
		if deactivated {
			logger.Info("Stale session closed for %s, starting a new one", p.RoomKey)
			room = nil
		}
	}

	if room == nil {
		room, err = r.store.CreateSession(ctx, p.RoomKey)
		if err != nil || room == nil {
			logger.Error("room:join %s: creating session: %v", p.RoomKey, err)
			return
		}
		logger.Info("New session %s created for %s", room.ID, p.RoomKey)
	}

	c.cacheSession(p.RoomKey, room.ID)

	participant := models.Participant{
		ConnectionID: c.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		Email:        p.Email,
		JoinedAt:     time.Now(),
	}
	if err := r.store.UpsertParticipant(ctx, room.ID, participant); err != nil {
		logger.Error("room:join %s: upserting participant: %v", p.RoomKey, err)
		return
	}

	participants, err := r.store.ListParticipants(ctx, room.ID)
	if err != nil {
		logger.Error("room:join %s: listing participants: %v", p.RoomKey, err)
		return
	}

	r.registry.Broadcast(p.RoomKey, models.Event{
		Name: models.EventRoomParticipants,
		Data: models.ParticipantsUpdate{RoomKey: p.RoomKey, Participants: participants},
	})
	r.registry.Broadcast(p.RoomKey, models.Event{
		Name: models.EventRoomNotice,
		Data: models.Notice{RoomKey: p.RoomKey, Text: p.Name + " joined the room", TS: time.Now().UnixMilli()},
	})

	r.replayRoomState(p.RoomKey, c)
}

// replayRoomState sends already-known presenter and UID state to a late
// joiner only, so it sees the room as it currently is.
func (r *Relay) replayRoomState(roomKey string, c *Client) {
	if current, ok := r.share.Get(roomKey); ok && current.ConnectionID != c.ID {
		c.Send(models.Event{
			Name: models.EventShareStarted,
			Data: models.ShareState{RoomKey: roomKey, ConnectionID: current.ConnectionID, Name: current.Name},
		})
	}

	for _, mapping := range r.uids.Snapshot(roomKey) {
		c.Send(models.Event{Name: models.EventUIDMap, Data: mapping})
	}
}

func (r *Relay) HandleLeave(ctx context.Context, c *Client, p models.LeavePayload) {
	if p.RoomKey == "" {
		logger.Debug("Dropping room:leave from %s: missing roomKey", c.ID)
		return
	}

	r.registry.LeaveRoom(p.RoomKey, c)
	c.dropSession(p.RoomKey)

	room, err := r.store.FindActiveRoom(ctx, p.RoomKey)
	if err != nil {
		logger.Error("room:leave %s: finding active room: %v", p.RoomKey, err)
		return
	}
	if room != nil {
		r.retract(ctx, room, c, "left the room")
	}

	r.cleanupSharer(p.RoomKey, c.ID)
	r.cleanupEphemeral(p.RoomKey, c.ID)
}

// HandleDisconnect retracts the connection from every active room that
// still lists it. The store is searched by connection id rather than the
// transport room set, so a client that died without leaving is still
// cleaned up everywhere.
func (r *Relay) HandleDisconnect(c *Client) {
	ctx := context.Background()
	joined := r.registry.Remove(c)

	rooms, err := r.store.RoomsWithConnection(ctx, c.ID)
	if err != nil {
		logger.Error("disconnect %s: finding rooms: %v", c.ID, err)
		rooms = nil
	}

	seen := make(map[string]bool)
	for _, room := range rooms {
		seen[room.RoomKey] = true
		r.retract(ctx, room, c, "disconnected")
		r.cleanupSharer(room.RoomKey, c.ID)
		r.cleanupEphemeral(room.RoomKey, c.ID)
	}

	// Transport rooms with no surviving participant row still carry
	// ephemeral state for this connection.
	for _, roomKey := range joined {
		if !seen[roomKey] {
			r.cleanupSharer(roomKey, c.ID)
			r.cleanupEphemeral(roomKey, c.ID)
		}
	}

	logger.Info("Connection closed: %s user: %s", c.ID, c.Identity.Name)
}

// retract atomically removes the connection's participant entry from the
// given session, broadcasts the updated list and a notice, and closes the
// session if it emptied. The notice names the pre-removal entry, which
// stays available through the DELETE's RETURNING clause.
func (r *Relay) retract(ctx context.Context, room *models.Room, c *Client, verb string) {
	removed, remaining, err := r.store.RemoveParticipant(ctx, room.ID, c.ID)
	if err != nil {
		logger.Error("retract %s from %s: %v", c.ID, room.RoomKey, err)
		return
	}
	if removed == nil {
		return
	}

	name := removed.Name
	if name == "" {
		name = c.Identity.Name
	}
	if name == "" {
		name = "Someone"
	}

	r.registry.Broadcast(room.RoomKey, models.Event{
		Name: models.EventRoomParticipants,
		Data: models.ParticipantsUpdate{RoomKey: room.RoomKey, Participants: remaining},
	})
	r.registry.Broadcast(room.RoomKey, models.Event{
		Name: models.EventRoomNotice,
		Data: models.Notice{RoomKey: room.RoomKey, Text: name + " " + verb, TS: time.Now().UnixMilli()},
	})

	deactivated, err := r.store.DeactivateRoomIfEmpty(ctx, room.ID)
	if err != nil {
		logger.Error("retract %s: closing empty session: %v", room.RoomKey, err)
		return
	}
	if deactivated {
		logger.Info("Session %s closed (empty) for %s", room.ID, room.RoomKey)
	}
}

// cleanupSharer clears the sharer slot if the departing connection held it
// and tells the room the share ended.
func (r *Relay) cleanupSharer(roomKey, connectionID string) {
	if r.share.Clear(roomKey, connectionID) {
		r.registry.Broadcast(roomKey, models.Event{
			Name: models.EventShareStopped,
			Data: models.SharePayload{RoomKey: roomKey},
		})
	}
}

func (r *Relay) cleanupEphemeral(roomKey, connectionID string) {
	r.uids.Remove(roomKey, connectionID)
	r.camera.Remove(roomKey, connectionID)
}
