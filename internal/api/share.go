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

// ShareHandler sends a video to another user.
type ShareHandler struct {
	shares repository.ShareRepository
	videos repository.VideoRepository
	users  repository.UserRepository
	events events.Publisher
	logger *zap.Logger
}

// NewShareHandler returns a ShareHandler.
func NewShareHandler(
	shares repository.ShareRepository,
	videos repository.VideoRepository,
	users repository.UserRepository,
	pub events.Publisher,
	logger *zap.Logger,
) *ShareHandler {
	return &ShareHandler{shares: shares, videos: videos, users: users, events: pub, logger: logger}
}

type shareRequest struct {
	ReceiverID int64 `json:"receiver_id" binding:"required,gt=0"`
}

// Share handles POST /api/videos/:id/share
//
// Sharing with yourself is refused before anything is looked up, so the
// answer is the same whether or not the id exists.
func (h *ShareHandler) Share(c *gin.Context) {
	videoID, ok := pathID(c, "id", "video")
	if !ok {
		return
	}
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Receiver ID is required", err)
		return
	}

	senderID := middleware.CurrentUserID(c)
	if req.ReceiverID == senderID {
		badRequest(c, "Cannot share video with yourself", nil)
		return
	}
	ctx := c.Request.Context()

	if _, err := h.videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Video not found")
			return
		}
		serverError(c, h.logger, "failed to share video", err)
		return
	}

	receiver, err := h.users.GetByID(ctx, req.ReceiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Receiver user not found")
			return
		}
		serverError(c, h.logger, "failed to share video", err)
		return
	}

	_, err = h.shares.Create(ctx, videoID, senderID, receiver.ID)
	switch {
	case errors.Is(err, repository.ErrSelfShare):
		badRequest(c, "Cannot share video with yourself", nil)
		return
	case errors.Is(err, repository.ErrNotFound):
		notFound(c, "Video not found")
		return
	case err != nil:
		serverError(c, h.logger, "failed to share video", err)
		return
	}

	publish(c, h.events, h.logger, events.Event{
		Type:     events.VideoShared,
		ActorID:  senderID,
		VideoID:  videoID,
		TargetID: receiver.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Video shared with " + receiver.Username + " successfully",
	})
}
