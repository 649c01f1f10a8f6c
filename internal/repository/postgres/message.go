package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// MessageStore implements repository.MessageRepository on Postgres.
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore returns a MessageStore backed by pool.
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Create stores a message. An unknown sender or receiver is
// repository.ErrNotFound.
func (s *MessageStore) Create(ctx context.Context, senderID, receiverID int64, text string) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, receiver_id, text, sent_at`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, senderID, receiverID, text).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Text,
		&msg.Timestamp,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// ListConversation matches both directions in one query, so (a, b) and
// (b, a) read exactly the same rows in the same order.
func (s *MessageStore) ListConversation(ctx context.Context, a, b int64) ([]models.MessageView, error) {
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.text, m.sent_at,
		       COALESCE(su.username, 'Unknown'),
		       COALESCE(ru.username, 'Unknown')
		FROM messages m
		LEFT JOIN users su ON su.id = m.sender_id
		LEFT JOIN users ru ON ru.id = m.receiver_id
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.sent_at ASC, m.id ASC`

	rows, err := s.pool.Query(ctx, query, a, b)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.MessageView, 0)
	for rows.Next() {
		var mv models.MessageView
		if err := rows.Scan(
			&mv.ID,
			&mv.SenderID,
			&mv.ReceiverID,
			&mv.Text,
			&mv.Timestamp,
			&mv.SenderUsername,
			&mv.ReceiverUsername,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

var _ repository.MessageRepository = (*MessageStore)(nil)
