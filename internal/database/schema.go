package database

// Schema is applied at startup. The partial unique index on rooms is what
// holds the single-active-session-per-roomKey invariant even when two
// connections race to open a session.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rooms (
	id         UUID PRIMARY KEY,
	room_key   TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rooms_key_active ON rooms (room_key, is_active);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_rooms_active_key ON rooms (room_key) WHERE is_active;

CREATE TABLE IF NOT EXISTS participants (
	room_id       UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	connection_id TEXT NOT NULL,
	user_id       TEXT NOT NULL DEFAULT '',
	name          TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	joined_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (room_id, connection_id)
);

CREATE INDEX IF NOT EXISTS idx_participants_connection ON participants (connection_id);

CREATE TABLE IF NOT EXISTS messages (
	id           UUID PRIMARY KEY,
	room_key     TEXT NOT NULL,
	session_id   UUID,
	sender_user_id TEXT NOT NULL DEFAULT '',
	sender_name  TEXT NOT NULL,
	sender_email TEXT NOT NULL DEFAULT '',
	text         TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages (session_id, created_at);
`
