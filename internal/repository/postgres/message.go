package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/seniorbuddy/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, roomID, uid string, text, voiceURL *string) (*models.Message, error) {
	// created_at comes from now() on the database, not from this process.
	// Two app servers with skewed clocks still agree on room order.
	query := `
		INSERT INTO messages (room_id, uid, text, voice_url, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, room_id, uid, text, voice_url, created_at`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, roomID, uid, text, voiceURL).Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.UID,
		&msg.Text,
		&msg.VoiceURL,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) ListByRoom(ctx context.Context, roomID string) ([]models.Message, error) {
	// Full history, oldest first. Subscribers receive whole snapshots, so
	// there is no cursor here. id breaks ties on equal timestamps.
	query := `
		SELECT id, room_id, uid, text, voice_url, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.UID,
			&msg.Text,
			&msg.VoiceURL,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
