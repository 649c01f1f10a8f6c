package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

const videoColumns = `id, user_id, file_path, description, upload_date, likes_count`

// VideoStore implements repository.VideoRepository. The likes_count
// column is only written by LikeStore, see adjustLikes.
type VideoStore struct {
	pool *pgxpool.Pool
}

// NewVideoStore returns a VideoStore backed by pool.
func NewVideoStore(pool *pgxpool.Pool) *VideoStore {
	return &VideoStore{pool: pool}
}

// Create inserts a video with zero likes. An unknown owner is
// repository.ErrNotFound.
func (s *VideoStore) Create(ctx context.Context, userID int64, filePath, description string) (*models.Video, error) {
	query := `
		INSERT INTO videos (user_id, file_path, description)
		VALUES ($1, $2, $3)
		RETURNING ` + videoColumns

	var v models.Video
	err := s.pool.QueryRow(ctx, query, userID, filePath, description).Scan(
		&v.ID,
		&v.UserID,
		&v.FilePath,
		&v.Description,
		&v.UploadDate,
		&v.LikesCount,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert video: %w", err)
	}
	return &v, nil
}

// GetByID returns repository.ErrNotFound for an unknown id.
func (s *VideoStore) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	var v models.Video
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.UserID,
		&v.FilePath,
		&v.Description,
		&v.UploadDate,
		&v.LikesCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return &v, nil
}

// Count is the number of videos in the feed.
func (s *VideoStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

// ListFeed returns one page of the feed, newest first. viewerID 0 means an
// anonymous viewer, who has liked nothing.
func (s *VideoStore) ListFeed(ctx context.Context, viewerID int64, offset, limit int) ([]models.FeedVideo, error) {
	// id breaks ties between uploads in the same instant so pages never
	// overlap or skip rows.
	query := `
		SELECT v.id, v.user_id, v.file_path, v.description, v.upload_date, v.likes_count,
		       COALESCE(u.username, 'Unknown'),
		       EXISTS (SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.user_id = $1)
		FROM videos v
		LEFT JOIN users u ON u.id = v.user_id
		ORDER BY v.upload_date DESC, v.id DESC
		OFFSET $2
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, viewerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	videos := make([]models.FeedVideo, 0)
	for rows.Next() {
		var fv models.FeedVideo
		if err := rows.Scan(
			&fv.ID,
			&fv.UserID,
			&fv.FilePath,
			&fv.Description,
			&fv.UploadDate,
			&fv.LikesCount,
			&fv.Username,
			&fv.LikedByUser,
		); err != nil {
			return nil, fmt.Errorf("scan feed video: %w", err)
		}
		videos = append(videos, fv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed: %w", err)
	}
	return videos, nil
}

// lockVideo takes a row lock on the video for the rest of tx, which
// serialises every like and unlike on it. It returns the current count.
func lockVideo(ctx context.Context, tx pgx.Tx, videoID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT likes_count FROM videos WHERE id = $1 FOR UPDATE`, videoID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("lock video: %w", err)
	}
	return count, nil
}

// adjustLikes moves likes_count by delta inside tx, never below zero.
func adjustLikes(ctx context.Context, tx pgx.Tx, videoID int64, delta int) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		UPDATE videos SET likes_count = GREATEST(likes_count + $2, 0)
		WHERE id = $1
		RETURNING likes_count`, videoID, delta).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("update likes_count: %w", err)
	}
	return count, nil
}

var _ repository.VideoRepository = (*VideoStore)(nil)
