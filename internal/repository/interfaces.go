package repository

import (
	"context"

	"github.com/Helllokittti/tiktok-prototip/internal/models"
)

// Every method takes a context so a dropped client cancels its query.
// Lookups by key return ErrNotFound rather than a nil record; list methods
// return an empty, non-nil slice so JSON renders [] instead of null.

// UserRepository handles accounts.
type UserRepository interface {
	// Create inserts a user. A duplicate username or email fails with
	// ErrUsernameTaken or ErrEmailTaken.
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateBio sets the bio and returns the updated user.
	UpdateBio(ctx context.Context, id int64, bio string) (*models.User, error)

	// ListExcept returns every user but id, ordered by username.
	ListExcept(ctx context.Context, id int64) ([]models.User, error)
}

// VideoRepository handles uploaded videos and the feed.
type VideoRepository interface {
	Create(ctx context.Context, userID int64, filePath, description string) (*models.Video, error)
	GetByID(ctx context.Context, id int64) (*models.Video, error)

	// Count returns the number of videos in the feed.
	Count(ctx context.Context) (int, error)

	// ListFeed returns one page of videos, newest upload first. viewerID
	// decides LikedByUser; 0 means an anonymous viewer.
	ListFeed(ctx context.Context, viewerID int64, offset, limit int) ([]models.FeedVideo, error)
}

// CommentRepository handles comments on videos.
type CommentRepository interface {
	// Create fails with ErrNotFound when the video does not exist.
	Create(ctx context.Context, userID, videoID int64, text string) (*models.Comment, error)

	// ListByVideo returns a video's comments, oldest first.
	ListByVideo(ctx context.Context, videoID int64) ([]models.CommentView, error)
}

// LikeRepository owns the likes table and, through it, videos.likes_count.
// The like row and the counter always change in one transaction.
type LikeRepository interface {
	// Like records the like and returns the new likes_count. A repeat like
	// fails with ErrAlreadyLiked and changes nothing.
	Like(ctx context.Context, userID, videoID int64) (int, error)

	// Unlike removes the like and returns the new likes_count. Unliking a
	// video that was not liked fails with ErrNotLiked and changes nothing.
	Unlike(ctx context.Context, userID, videoID int64) (int, error)
}

// MessageRepository handles direct messages.
type MessageRepository interface {
	Create(ctx context.Context, senderID, receiverID int64, text string) (*models.Message, error)

	// ListConversation returns messages exchanged between a and b in either
	// direction, oldest first. The result does not depend on argument order.
	ListConversation(ctx context.Context, a, b int64) ([]models.MessageView, error)
}

// ShareRepository records videos sent from one user to another.
type ShareRepository interface {
	// Create fails with ErrSelfShare when sender and receiver match and with
	// ErrNotFound when the video or the receiver is missing.
	Create(ctx context.Context, videoID, senderID, receiverID int64) (*models.VideoShare, error)
}
