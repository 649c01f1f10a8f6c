package api

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/events"
	"github.com/Helllokittti/tiktok-prototip/internal/middleware"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
	"github.com/Helllokittti/tiktok-prototip/internal/storage"
)

// VideoHandler serves uploads and the feed.
type VideoHandler struct {
	videos   repository.VideoRepository
	store    storage.Storage
	events   events.Publisher
	maxBytes int64
	logger   *zap.Logger
}

// NewVideoHandler caps uploads at maxBytes.
func NewVideoHandler(
	videos repository.VideoRepository,
	store storage.Storage,
	pub events.Publisher,
	maxBytes int64,
	logger *zap.Logger,
) *VideoHandler {
	return &VideoHandler{
		videos:   videos,
		store:    store,
		events:   pub,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// uploadForm holds the text fields of an upload. description follows the
// videos.description column.
type uploadForm struct {
	Description string `form:"description" binding:"max=512"`
}

// feedVideo is one row of GET /api/videos.
type feedVideo struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	FileURL     string    `json:"file_url"`
	Description string    `json:"description"`
	UploadDate  time.Time `json:"upload_date"`
	LikesCount  int       `json:"likes_count"`
	IsLiked     bool      `json:"is_liked_by_current_user"`
}

// Upload handles POST /api/upload
//
// The body is a multipart form with the file in "video" and an optional
// "description". The stored name is derived from the client's file name
// but never trusted: see storage.ObjectName.
func (h *VideoHandler) Upload(c *gin.Context) {
	// Headroom for the form fields and multipart framing around the file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+64*1024)

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File is too large"})
		case errors.Is(err, http.ErrMissingFile):
			badRequest(c, "No video file part", nil)
		default:
			badRequest(c, "Invalid upload", err)
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		badRequest(c, "No selected file", nil)
		return
	}
	if header.Size == 0 {
		badRequest(c, "Video file is empty", nil)
		return
	}
	if header.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File is too large"})
		return
	}

	// The form is already parsed by FormFile, binding only maps and
	// validates the text fields. Nothing is stored until they pass.
	var form uploadForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		badRequest(c, "Invalid upload", err)
		return
	}

	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)
	name := storage.ObjectName(header.Filename)

	location, err := h.store.Save(ctx, name, file)
	if err != nil {
		serverError(c, h.logger, "Error uploading video", err)
		return
	}

	video, err := h.videos.Create(ctx, userID, location, form.Description)
	if err != nil {
		h.discard(ctx, name, location)
		serverError(c, h.logger, "Error uploading video", err)
		return
	}

	publish(c, h.events, h.logger, events.Event{
		Type:    events.VideoUploaded,
		ActorID: userID,
		VideoID: video.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Video uploaded successfully",
		"video_id": video.ID,
	})
}

// discard takes back a stored file whose video row was never written.
// Backends that cannot remove files leave it behind with a warning.
func (h *VideoHandler) discard(ctx context.Context, name, location string) {
	remover, ok := h.store.(storage.Remover)
	if !ok {
		h.logger.Warn("stored file has no video row", zap.String("location", location))
		return
	}
	if err := remover.Remove(ctx, name); err != nil {
		h.logger.Warn("failed to remove orphaned upload",
			zap.String("location", location),
			zap.Error(err),
		)
	}
}

// Feed handles GET /api/videos?page=1&per_page=10
//
// Newest first. A signed-in viewer also learns which videos they liked.
func (h *VideoHandler) Feed(c *gin.Context) {
	number, perPage := parsePage(c)
	ctx := c.Request.Context()

	total, err := h.videos.Count(ctx)
	if err != nil {
		serverError(c, h.logger, "failed to list videos", err)
		return
	}
	p := newPage(number, perPage, total)

	items := make([]feedVideo, 0, perPage)
	if !p.Empty() {
		rows, err := h.videos.ListFeed(ctx, middleware.CurrentUserID(c), p.Offset(), p.PerPage)
		if err != nil {
			serverError(c, h.logger, "failed to list videos", err)
			return
		}
		for _, v := range rows {
			items = append(items, feedVideo{
				ID:          v.ID,
				UserID:      v.UserID,
				Username:    v.Username,
				FileURL:     fileURL(v.FilePath),
				Description: v.Description,
				UploadDate:  v.UploadDate,
				LikesCount:  v.LikesCount,
				IsLiked:     v.LikedByUser,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"videos":       items,
		"total":        p.Total,
		"total_pages":  p.TotalPages,
		"current_page": p.Number,
		"has_next":     p.HasNext,
		"has_prev":     p.HasPrev,
	})
}

// fileURL turns a stored location into something a browser can fetch.
// Object storage already hands back absolute URLs; local files are served
// under /uploads.
func fileURL(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return "/uploads/" + path.Base(strings.ReplaceAll(location, "\\", "/"))
}

// publish hands an activity event to the publisher. Delivery is best
// effort: a failure is logged and the request carries on.
func publish(c *gin.Context, pub events.Publisher, logger *zap.Logger, e events.Event) {
	if err := pub.Publish(c.Request.Context(), e); err != nil {
		logger.Warn("failed to publish activity event",
			zap.String("type", e.Type),
			zap.Error(err),
		)
	}
}
