package postgres

import (
	"context"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// LikeStore is the only writer of videos.likes_count. Each call is one
// transaction: lock the video row, change the like row, move the counter.
// On a serialization failure the whole transaction is retried, so the row
// and the counter can never be applied separately.
type LikeStore struct {
	pool *pgxpool.Pool
}

// NewLikeStore returns a LikeStore backed by pool.
func NewLikeStore(pool *pgxpool.Pool) *LikeStore {
	return &LikeStore{pool: pool}
}

// Like records the like and bumps the counter in one transaction and
// returns the new count. A second like is repository.ErrAlreadyLiked.
func (s *LikeStore) Like(ctx context.Context, userID, videoID int64) (int, error) {
	var count int
	err := crdbpgx.ExecuteTx(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := lockVideo(ctx, tx, videoID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO likes (user_id, video_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, video_id) DO NOTHING`, userID, videoID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("insert like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrAlreadyLiked
		}

		count, err = adjustLikes(ctx, tx, videoID, 1)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Unlike is the reverse of Like. Unliking a video that was never liked is
// repository.ErrNotLiked and leaves the counter alone.
func (s *LikeStore) Unlike(ctx context.Context, userID, videoID int64) (int, error) {
	var count int
	err := crdbpgx.ExecuteTx(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := lockVideo(ctx, tx, videoID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			DELETE FROM likes
			WHERE user_id = $1 AND video_id = $2`, userID, videoID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotLiked
		}

		count, err = adjustLikes(ctx, tx, videoID, -1)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ repository.LikeRepository = (*LikeStore)(nil)
