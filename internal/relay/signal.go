package relay

import (
	"encoding/json"

	"rtc-relay/internal/models"
	"rtc-relay/pkg/logger"
)

// ShouldInitiate decides which side of a mesh pair sends the offer. It is
// a pure comparison of the two connection ids so both peers reach the same
// answer without coordinating: the lower id initiates.
func ShouldInitiate(selfID, peerID string) bool {
	return selfID < peerID
}

// HandleForward relays an opaque signaling payload to exactly one target
// connection, tagging it with the sender's connection id. Malformed or
// unaddressed payloads are dropped without a reply; a buggy or
// mid-teardown client must never crash the relay.
func (r *Relay) HandleForward(c *Client, event string, raw json.RawMessage) {
	var addr models.ForwardPayload
	if len(raw) == 0 || json.Unmarshal(raw, &addr) != nil || addr.TargetID == "" {
		logger.Debug("Dropping %s from %s: missing target", event, c.ID)
		return
	}

	payload := map[string]interface{}{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Debug("Dropping %s from %s: unreadable payload", event, c.ID)
		return
	}
	// An address with nothing to deliver is as malformed as no address.
	if len(payload) <= 1 {
		logger.Debug("Dropping %s from %s: empty payload", event, c.ID)
		return
	}
	payload["from"] = c.ID

	if !r.registry.SendTo(addr.TargetID, models.Event{Name: event, Data: payload}) {
		logger.Debug("Dropping %s from %s: target %s gone", event, c.ID, addr.TargetID)
	}
}

func (r *Relay) HandleShareStart(c *Client, p models.SharePayload) {
	if p.RoomKey == "" {
		logger.Debug("Dropping screenshare:start from %s: missing roomKey", c.ID)
		return
	}

	ok, current := r.share.Start(p.RoomKey, c.ID, c.Identity.Name)
	if !ok {
		c.Send(models.Event{
			Name: models.EventShareDenied,
			Data: models.ShareDenied{RoomKey: p.RoomKey, Reason: current.Name + " is already sharing"},
		})
		return
	}

	r.registry.BroadcastExcept(p.RoomKey, c.ID, models.Event{
		Name: models.EventShareStarted,
		Data: models.ShareState{RoomKey: p.RoomKey, ConnectionID: c.ID, Name: c.Identity.Name},
	})
}

// HandleShareStop clears the slot when the requester holds it, and always
// broadcasts the stop. Clients are safe to receive a stop they never saw a
// start for.
func (r *Relay) HandleShareStop(c *Client, p models.SharePayload) {
	if p.RoomKey == "" {
		logger.Debug("Dropping screenshare:stop from %s: missing roomKey", c.ID)
		return
	}

	r.share.Clear(p.RoomKey, c.ID)
	r.registry.Broadcast(p.RoomKey, models.Event{
		Name: models.EventShareStopped,
		Data: models.SharePayload{RoomKey: p.RoomKey},
	})
}

// HandleCameraReady registers the announcer in the room's mesh, replies
// with the peers that got there first (marking which side initiates), and
// tells the rest of the room about the announcer.
func (r *Relay) HandleCameraReady(c *Client, p models.CameraReadyPayload) {
	if p.RoomKey == "" {
		logger.Debug("Dropping camera:ready from %s: missing roomKey", c.ID)
		return
	}

	others := r.camera.Add(p.RoomKey, c.ID)

	peers := make([]models.CameraPeer, 0, len(others))
	for _, peerID := range others {
		peers = append(peers, models.CameraPeer{
			ConnectionID: peerID,
			Initiate:     ShouldInitiate(c.ID, peerID),
		})
	}

	c.Send(models.Event{
		Name: models.EventCameraUsersReady,
		Data: models.CameraUsersReady{RoomKey: p.RoomKey, Peers: peers},
	})

	r.registry.BroadcastExcept(p.RoomKey, c.ID, models.Event{
		Name: models.EventCameraUserReady,
		Data: models.CameraUserReady{RoomKey: p.RoomKey, ConnectionID: c.ID},
	})
}

func (r *Relay) HandleCamToggled(c *Client, p models.CamToggledPayload) {
	if p.RoomKey == "" {
		logger.Debug("Dropping camera:cam-toggled from %s: missing roomKey", c.ID)
		return
	}

	r.registry.BroadcastExcept(p.RoomKey, c.ID, models.Event{
		Name: models.EventCamToggled,
		Data: map[string]interface{}{
			"roomKey":      p.RoomKey,
			"connectionId": c.ID,
			"camOn":        p.CamOn,
		},
	})
}

// HandleUIDAnnounce records an alternate-transport identifier for this
// connection and broadcasts the mapping, sender included, so its own UI
// can confirm.
func (r *Relay) HandleUIDAnnounce(c *Client, p models.UIDAnnouncePayload) {
	if p.RoomKey == "" || p.AgoraUID == nil {
		logger.Debug("Dropping agora:uid-announce from %s: missing roomKey or uid", c.ID)
		return
	}

	name := c.Identity.Name
	if name == "" {
		name = "Unknown"
	}

	mapping := models.UIDMap{ConnectionID: c.ID, AgoraUID: p.AgoraUID, Name: name}
	r.uids.Set(p.RoomKey, mapping)

	r.registry.Broadcast(p.RoomKey, models.Event{Name: models.EventUIDMap, Data: mapping})
}
