package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/events"
	"github.com/Helllokittti/tiktok-prototip/internal/middleware"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// CommentHandler lists and adds comments on a video. Listing is public.
type CommentHandler struct {
	comments repository.CommentRepository
	videos   repository.VideoRepository
	events   events.Publisher
	logger   *zap.Logger
}

// NewCommentHandler returns a CommentHandler.
func NewCommentHandler(
	comments repository.CommentRepository,
	videos repository.VideoRepository,
	pub events.Publisher,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{comments: comments, videos: videos, events: pub, logger: logger}
}

type createCommentRequest struct {
	Text string `json:"text" binding:"required,max=512"`
}

// List handles GET /api/videos/:id/comments
//
// Oldest first. An unknown video simply has no comments.
func (h *CommentHandler) List(c *gin.Context) {
	videoID, ok := pathID(c, "id", "video")
	if !ok {
		return
	}

	comments, err := h.comments.ListByVideo(c.Request.Context(), videoID)
	if err != nil {
		serverError(c, h.logger, "failed to list comments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Create handles POST /api/videos/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	videoID, ok := pathID(c, "id", "video")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Comment text is required", err)
		return
	}
	ctx := c.Request.Context()

	if _, err := h.videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Video not found")
			return
		}
		serverError(c, h.logger, "failed to add comment", err)
		return
	}

	userID := middleware.CurrentUserID(c)
	comment, err := h.comments.Create(ctx, userID, videoID, req.Text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Video not found")
			return
		}
		serverError(c, h.logger, "failed to add comment", err)
		return
	}

	publish(c, h.events, h.logger, events.Event{
		Type:    events.CommentCreated,
		ActorID: userID,
		VideoID: videoID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Comment added successfully",
		"comment_id": comment.ID,
	})
}
