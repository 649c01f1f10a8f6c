package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// CommentStore implements repository.CommentRepository on Postgres.
type CommentStore struct {
	pool *pgxpool.Pool
}

// NewCommentStore returns a CommentStore backed by pool.
func NewCommentStore(pool *pgxpool.Pool) *CommentStore {
	return &CommentStore{pool: pool}
}

// Create inserts a comment. The foreign key on video_id turns a missing
// video into ErrNotFound even if it vanished after the handler checked.
func (s *CommentStore) Create(ctx context.Context, userID, videoID int64, text string) (*models.Comment, error) {
	query := `
		INSERT INTO comments (user_id, video_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, video_id, text, comment_date`

	var cm models.Comment
	err := s.pool.QueryRow(ctx, query, userID, videoID, text).Scan(
		&cm.ID,
		&cm.UserID,
		&cm.VideoID,
		&cm.Text,
		&cm.CommentDate,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &cm, nil
}

// ListByVideo returns the comments on a video oldest first, each with its
// author's username.
func (s *CommentStore) ListByVideo(ctx context.Context, videoID int64) ([]models.CommentView, error) {
	query := `
		SELECT c.id, c.user_id, c.video_id, c.text, c.comment_date,
		       COALESCE(u.username, 'Unknown')
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.video_id = $1
		ORDER BY c.comment_date ASC, c.id ASC`

	rows, err := s.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.CommentView, 0)
	for rows.Next() {
		var cv models.CommentView
		if err := rows.Scan(
			&cv.ID,
			&cv.UserID,
			&cv.VideoID,
			&cv.Text,
			&cv.CommentDate,
			&cv.Username,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

var _ repository.CommentRepository = (*CommentStore)(nil)
