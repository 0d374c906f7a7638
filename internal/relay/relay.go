package relay

import (
	"context"
	"encoding/json"

	"rtc-relay/internal/database"
	"rtc-relay/internal/models"
	"rtc-relay/pkg/logger"
)

// Relay wires the membership coordinator, signaling relay, and chat fan-out
// onto the live connection registry. Room and message rows go through the
// store; presenter and mesh state stays in the process-local registries.
type Relay struct {
	store    database.Store
	registry *Registry
	share    *shareRegistry
	uids     *uidRegistry
	camera   *cameraRegistry
}

func NewRelay(store database.Store) *Relay {
	return &Relay{
		store:    store,
		registry: NewRegistry(),
		share:    newShareRegistry(),
		uids:     newUIDRegistry(),
		camera:   newCameraRegistry(),
	}
}

func (r *Relay) Registry() *Registry {
	return r.registry
}

// Dispatch routes one inbound event to its handler. Handlers are fault
// isolated: a panic in one event must not take down the connection, let
// alone the process.
func (r *Relay) Dispatch(c *Client, env models.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Recovered from panic in %s handler for %s: %v", env.Event, c.ID, rec)
		}
	}()

	ctx := context.Background()

	switch env.Event {
	case models.EventRoomJoin:
		var p models.JoinPayload
		if decode(c, env, &p) {
			r.HandleJoin(ctx, c, p)
		}
	case models.EventRoomLeave:
		var p models.LeavePayload
		if decode(c, env, &p) {
			r.HandleLeave(ctx, c, p)
		}
	case models.EventChatSend:
		var p models.ChatSendPayload
		if decode(c, env, &p) {
			r.HandleChatSend(ctx, c, p)
		}
	case models.EventShareStart:
		var p models.SharePayload
		if decode(c, env, &p) {
			r.HandleShareStart(c, p)
		}
	case models.EventShareStop:
		var p models.SharePayload
		if decode(c, env, &p) {
			r.HandleShareStop(c, p)
		}
	case models.EventViewerReady, models.EventSignalOffer, models.EventSignalAnswer, models.EventSignalCandidate,
		models.EventCameraOffer, models.EventCameraAnswer, models.EventCameraCandidate:
		r.HandleForward(c, env.Event, env.Data)
	case models.EventCameraReady:
		var p models.CameraReadyPayload
		if decode(c, env, &p) {
			r.HandleCameraReady(c, p)
		}
	case models.EventCamToggled:
		var p models.CamToggledPayload
		if decode(c, env, &p) {
			r.HandleCamToggled(c, p)
		}
	case models.EventUIDAnnounce:
		var p models.UIDAnnouncePayload
		if decode(c, env, &p) {
			r.HandleUIDAnnounce(c, p)
		}
	default:
		logger.Debug("Unknown event %q from %s", env.Event, c.ID)
	}
}

func decode(c *Client, env models.Envelope, into interface{}) bool {
	if len(env.Data) == 0 {
		logger.Debug("Dropping %s from %s: empty payload", env.Event, c.ID)
		return false
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		logger.Debug("Dropping %s from %s: %v", env.Event, c.ID, err)
		return false
	}
	return true
}
