package relay

import (
	"context"
	"strings"

	"rtc-relay/internal/models"
	"rtc-relay/pkg/logger"
)

// HandleChatSend persists the message scoped to the room's current session
// and only then fans it out, so anyone fetching history after seeing the
// broadcast finds the same message.
func (r *Relay) HandleChatSend(ctx context.Context, c *Client, p models.ChatSendPayload) {
	text := strings.TrimSpace(p.Text)
	if p.RoomKey == "" || p.Name == "" || text == "" {
		logger.Debug("Dropping chat:send from %s: missing roomKey, name, or text", c.ID)
		return
	}

	sessionID := c.cachedSession(p.RoomKey)
	if sessionID == "" {
		room, err := r.store.FindActiveRoom(ctx, p.RoomKey)
		if err != nil {
			logger.Error("chat:send %s: finding active room: %v", p.RoomKey, err)
			return
		}
		if room != nil {
			sessionID = room.ID
		}
	}

	stored, err := r.store.SaveMessage(ctx, &models.Message{
		RoomKey:   p.RoomKey,
		SessionID: sessionID,
		Sender:    models.Identity{UserID: p.UserID, Name: p.Name, Email: p.Email},
		Text:      text,
	})
	if err != nil {
		logger.Error("chat:send %s: saving message: %v", p.RoomKey, err)
		return
	}

	r.registry.Broadcast(p.RoomKey, models.Event{
		Name: models.EventChatNew,
		Data: models.ChatNew{
			ID:      stored.ID,
			RoomKey: p.RoomKey,
			Who:     "user",
			Name:    p.Name,
			Email:   p.Email,
			Text:    stored.Text,
			TS:      stored.CreatedAt.UnixMilli(),
		},
	})
}
