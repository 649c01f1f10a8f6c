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

// LikeHandler toggles the caller's like on a video. Liking twice or
// unliking a video that was never liked is a 409, not a silent no-op.
type LikeHandler struct {
	likes  repository.LikeRepository
	events events.Publisher
	logger *zap.Logger
}

// NewLikeHandler returns a LikeHandler.
func NewLikeHandler(likes repository.LikeRepository, pub events.Publisher, logger *zap.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, events: pub, logger: logger}
}

// Like handles POST /api/videos/:id/like
func (h *LikeHandler) Like(c *gin.Context) {
	h.toggle(c, true)
}

// Unlike handles POST /api/videos/:id/unlike
func (h *LikeHandler) Unlike(c *gin.Context) {
	h.toggle(c, false)
}

func (h *LikeHandler) toggle(c *gin.Context, like bool) {
	videoID, ok := pathID(c, "id", "video")
	if !ok {
		return
	}
	userID := middleware.CurrentUserID(c)

	var (
		count int
		err   error
	)
	if like {
		count, err = h.likes.Like(c.Request.Context(), userID, videoID)
	} else {
		count, err = h.likes.Unlike(c.Request.Context(), userID, videoID)
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		notFound(c, "Video not found")
		return
	case errors.Is(err, repository.ErrAlreadyLiked):
		conflict(c, "Video already liked")
		return
	case errors.Is(err, repository.ErrNotLiked):
		conflict(c, "Video not liked yet")
		return
	case err != nil:
		serverError(c, h.logger, "failed to update like", err)
		return
	}

	eventType, message := events.VideoLiked, "Video liked successfully"
	if !like {
		eventType, message = events.VideoUnliked, "Video unliked successfully"
	}
	publish(c, h.events, h.logger, events.Event{
		Type:       eventType,
		ActorID:    userID,
		VideoID:    videoID,
		LikesCount: &count,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"likes_count": count,
	})
}
