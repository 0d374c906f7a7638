package database

import (
	"context"
	"errors"
	"fmt"

	"rtc-relay/internal/models"
	"rtc-relay/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation

func (db *PostgresDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Room Repository Implementation

func (db *PostgresDB) FindActiveRoom(ctx context.Context, roomKey string) (*models.Room, error) {
	query := `SELECT id, room_key, is_active, created_at FROM rooms WHERE room_key = $1 AND is_active`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, roomKey).Scan(
		&room.ID, &room.RoomKey, &room.IsActive, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	room.Participants, err = db.ListParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (db *PostgresDB) CreateSession(ctx context.Context, roomKey string) (*models.Room, error) {
	query := `
		INSERT INTO rooms (id, room_key) VALUES ($1, $2)
		ON CONFLICT (room_key) WHERE is_active DO NOTHING
		RETURNING id, room_key, is_active, created_at`

	room := &models.Room{Participants: []models.Participant{}}
	err := db.pool.QueryRow(ctx, query, uuid.NewString(), roomKey).Scan(
		&room.ID, &room.RoomKey, &room.IsActive, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Another connection opened the session first; use theirs.
		return db.FindActiveRoom(ctx, roomKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return room, nil
}

func (db *PostgresDB) GetOrCreateRoom(ctx context.Context, roomKey string) (*models.Room, error) {
	room, err := db.FindActiveRoom(ctx, roomKey)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}

	query := `SELECT id, room_key, is_active, created_at FROM rooms WHERE room_key = $1 ORDER BY created_at DESC LIMIT 1`
	room = &models.Room{}
	err = db.pool.QueryRow(ctx, query, roomKey).Scan(
		&room.ID, &room.RoomKey, &room.IsActive, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.CreateSession(ctx, roomKey)
	}
	if err != nil {
		return nil, err
	}

	room.Participants, err = db.ListParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (db *PostgresDB) DeactivateRoom(ctx context.Context, roomID string) error {
	_, err := db.pool.Exec(ctx, `UPDATE rooms SET is_active = FALSE WHERE id = $1`, roomID)
	return err
}

func (db *PostgresDB) DeactivateRoomIfEmpty(ctx context.Context, roomID string) (bool, error) {
	query := `
		UPDATE rooms SET is_active = FALSE
		WHERE id = $1 AND is_active
		AND NOT EXISTS (SELECT 1 FROM participants WHERE room_id = $1)`

	tag, err := db.pool.Exec(ctx, query, roomID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *PostgresDB) PruneParticipants(ctx context.Context, roomID string, live []string) ([]string, error) {
	query := `
		DELETE FROM participants
		WHERE room_id = $1 AND NOT (connection_id = ANY($2))
		RETURNING connection_id`

	rows, err := db.pool.Query(ctx, query, roomID, live)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pruned []string
	for rows.Next() {
		var connectionID string
		if err := rows.Scan(&connectionID); err != nil {
			return nil, err
		}
		pruned = append(pruned, connectionID)
	}

	return pruned, rows.Err()
}

func (db *PostgresDB) UpsertParticipant(ctx context.Context, roomID string, p models.Participant) error {
	query := `
		INSERT INTO participants (room_id, connection_id, user_id, name, email, joined_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (room_id, connection_id)
		DO UPDATE SET user_id = EXCLUDED.user_id, name = EXCLUDED.name,
		              email = EXCLUDED.email, joined_at = NOW()`

	_, err := db.pool.Exec(ctx, query, roomID, p.ConnectionID, p.UserID, p.Name, p.Email)
	return err
}

func (db *PostgresDB) RemoveParticipant(ctx context.Context, roomID, connectionID string) (*models.Participant, []models.Participant, error) {
	query := `
		DELETE FROM participants
		WHERE room_id = $1 AND connection_id = $2
		RETURNING connection_id, user_id, name, email, joined_at`

	removed := &models.Participant{}
	err := db.pool.QueryRow(ctx, query, roomID, connectionID).Scan(
		&removed.ConnectionID, &removed.UserID, &removed.Name, &removed.Email, &removed.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		removed = nil
	} else if err != nil {
		return nil, nil, err
	}

	remaining, err := db.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	return removed, remaining, nil
}

func (db *PostgresDB) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	query := `
		SELECT connection_id, user_id, name, email, joined_at
		FROM participants
		WHERE room_id = $1
		ORDER BY joined_at`

	rows, err := db.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		p := models.Participant{}
		if err := rows.Scan(&p.ConnectionID, &p.UserID, &p.Name, &p.Email, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (db *PostgresDB) RoomsWithConnection(ctx context.Context, connectionID string) ([]*models.Room, error) {
	query := `
		SELECT r.id, r.room_key, r.is_active, r.created_at
		FROM rooms r
		JOIN participants p ON p.room_id = r.id
		WHERE p.connection_id = $1 AND r.is_active`

	rows, err := db.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.RoomKey, &room.IsActive, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// Message Repository Implementation

func (db *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, room_key, session_id, sender_user_id, sender_name, sender_email, text)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7)
		RETURNING id, created_at`

	stored := *msg
	err := db.pool.QueryRow(ctx, query,
		uuid.NewString(), msg.RoomKey, msg.SessionID,
		msg.Sender.UserID, msg.Sender.Name, msg.Sender.Email, msg.Text,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return &stored, nil
}

func (db *PostgresDB) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, room_key, COALESCE(session_id::text, ''), sender_user_id, sender_name, sender_email, text, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.RoomKey, &msg.SessionID,
			&msg.Sender.UserID, &msg.Sender.Name, &msg.Sender.Email,
			&msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
