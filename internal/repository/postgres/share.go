package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// ShareStore records videos sent from one user to another.
type ShareStore struct {
	pool *pgxpool.Pool
}

// NewShareStore returns a ShareStore backed by pool.
func NewShareStore(pool *pgxpool.Pool) *ShareStore {
	return &ShareStore{pool: pool}
}

// Create records a share. Re-sharing the same video with the same person
// is allowed and simply adds another row.
func (s *ShareStore) Create(ctx context.Context, videoID, senderID, receiverID int64) (*models.VideoShare, error) {
	if senderID == receiverID {
		return nil, repository.ErrSelfShare
	}

	query := `
		INSERT INTO video_shares (video_id, sender_id, receiver_id)
		VALUES ($1, $2, $3)
		RETURNING id, video_id, sender_id, receiver_id, share_date`

	var sh models.VideoShare
	err := s.pool.QueryRow(ctx, query, videoID, senderID, receiverID).Scan(
		&sh.ID,
		&sh.VideoID,
		&sh.SenderID,
		&sh.ReceiverID,
		&sh.ShareDate,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert share: %w", err)
	}
	return &sh, nil
}

var _ repository.ShareRepository = (*ShareStore)(nil)
