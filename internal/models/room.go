package models

import "time"

// User is the persisted identity record the gate resolves tokens against.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the authenticated principal bound to a connection at handshake.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Room is one session of a named room. A roomKey can accumulate many room
// rows over time; at most one of them is active.
type Room struct {
	ID           string        `json:"id"`
	RoomKey      string        `json:"roomKey"`
	IsActive     bool          `json:"isActive"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type Participant struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Message is a chat message scoped to the session that was active when it
// was sent.
type Message struct {
	ID        string    `json:"id"`
	RoomKey   string    `json:"roomKey"`
	SessionID string    `json:"sessionId,omitempty"`
	Sender    Identity  `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
