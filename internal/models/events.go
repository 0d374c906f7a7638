package models

import "encoding/json"

// Inbound events (client → server)
const (
	EventRoomJoin        = "room:join"
	EventRoomLeave       = "room:leave"
	EventChatSend        = "chat:send"
	EventShareStart      = "screenshare:start"
	EventShareStop       = "screenshare:stop"
	EventViewerReady     = "signal:viewer-ready"
	EventSignalOffer     = "signal:offer"
	EventSignalAnswer    = "signal:answer"
	EventSignalCandidate = "signal:ice-candidate"
	EventCameraReady     = "camera:ready"
	EventCameraOffer     = "camera:offer"
	EventCameraAnswer    = "camera:answer"
	EventCameraCandidate = "camera:ice-candidate"
	EventCamToggled      = "camera:cam-toggled"
	EventUIDAnnounce     = "agora:uid-announce"
)

// Outbound events (server → client)
const (
	EventRoomParticipants = "room:participants"
	EventRoomNotice       = "room:notice"
	EventChatNew          = "chat:new"
	EventShareStarted     = "screenshare:started"
	EventShareStopped     = "screenshare:stopped"
	EventShareDenied      = "screenshare:denied"
	EventCameraUserReady  = "camera:user-ready"
	EventCameraUsersReady = "camera:users-ready"
	EventUIDMap           = "agora:uid-map"
)

// Envelope is the wire form of every message on the signaling channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound message before marshaling.
type Event struct {
	Name string
	Data interface{}
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}{Event: e.Name, Data: e.Data})
}

// Inbound payloads

type JoinPayload struct {
	RoomKey string `json:"roomKey"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type LeavePayload struct {
	RoomKey string `json:"roomKey"`
}

type ChatSendPayload struct {
	RoomKey string `json:"roomKey"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Text    string `json:"text"`
}

type SharePayload struct {
	RoomKey string `json:"roomKey"`
}

// ForwardPayload is the addressed part of a blind point-to-point forward;
// everything else in the payload is opaque to the relay.
type ForwardPayload struct {
	TargetID string `json:"targetId"`
}

type CameraReadyPayload struct {
	RoomKey string `json:"roomKey"`
}

type CamToggledPayload struct {
	RoomKey string `json:"roomKey"`
	CamOn   bool   `json:"camOn"`
}

type UIDAnnouncePayload struct {
	RoomKey  string      `json:"roomKey"`
	AgoraUID interface{} `json:"agoraUid"`
}

// Outbound payloads

type ParticipantsUpdate struct {
	RoomKey      string        `json:"roomKey"`
	Participants []Participant `json:"participants"`
}

type Notice struct {
	RoomKey string `json:"roomKey"`
	Text    string `json:"text"`
	TS      int64  `json:"ts"`
}

type ChatNew struct {
	ID      string `json:"id"`
	RoomKey string `json:"roomKey"`
	Who     string `json:"who"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Text    string `json:"text"`
	TS      int64  `json:"ts"`
}

type ShareState struct {
	RoomKey      string `json:"roomKey"`
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
}

type ShareDenied struct {
	RoomKey string `json:"roomKey"`
	Reason  string `json:"reason"`
}

type CameraUserReady struct {
	RoomKey      string `json:"roomKey"`
	ConnectionID string `json:"connectionId"`
}

// CameraPeer is one entry in the users-ready reply. Initiate tells the
// announcer whether it is the side that sends the offer toward this peer.
type CameraPeer struct {
	ConnectionID string `json:"connectionId"`
	Initiate     bool   `json:"initiate"`
}

type CameraUsersReady struct {
	RoomKey string       `json:"roomKey"`
	Peers   []CameraPeer `json:"peers"`
}

type UIDMap struct {
	ConnectionID string      `json:"connectionId"`
	AgoraUID     interface{} `json:"agoraUid"`
	Name         string      `json:"name"`
}
