package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/events"
	"github.com/Helllokittti/tiktok-prototip/internal/middleware"
	"github.com/Helllokittti/tiktok-prototip/internal/observ"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
	"github.com/Helllokittti/tiktok-prototip/internal/storage"
	"github.com/Helllokittti/tiktok-prototip/internal/validate"
)

// Deps is everything the HTTP layer needs. cmd/server builds it once.
type Deps struct {
	Users    repository.UserRepository
	Videos   repository.VideoRepository
	Comments repository.CommentRepository
	Likes    repository.LikeRepository
	Messages repository.MessageRepository
	Shares   repository.ShareRepository

	Tokens  TokenCodec
	Storage storage.Storage
	Events  events.Publisher
	DB      Pinger

	// AuthLimiter throttles register and login per client IP. Nil turns
	// throttling off.
	AuthLimiter middleware.RateLimiter

	// UploadDir is served at /uploads. Leave empty when files live in
	// object storage and are fetched from there.
	UploadDir      string
	MaxUploadBytes int64

	Logger *zap.Logger
}

// NewRouter builds the gin engine with every route under /api.
func NewRouter(d Deps) *gin.Engine {
	validate.Register()
	if d.Events == nil {
		d.Events = events.Nop{}
	}

	r := gin.New()
	r.Use(observ.RequestLogger(d.Logger))

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	authHandler := NewAuthHandler(d.Users, d.Tokens, d.Logger)
	profileHandler := NewProfileHandler(d.Users, d.Logger)
	videoHandler := NewVideoHandler(d.Videos, d.Storage, d.Events, d.MaxUploadBytes, d.Logger)
	commentHandler := NewCommentHandler(d.Comments, d.Videos, d.Events, d.Logger)
	likeHandler := NewLikeHandler(d.Likes, d.Events, d.Logger)
	chatHandler := NewChatHandler(d.Messages, d.Users, d.Events, d.Logger)
	shareHandler := NewShareHandler(d.Shares, d.Videos, d.Users, d.Events, d.Logger)
	healthHandler := NewHealthHandler(d.DB, d.Logger)

	requireAuth := middleware.AuthMiddleware(d.Tokens, d.Users)
	optionalAuth := middleware.OptionalAuth(d.Tokens, d.Users)

	api := r.Group("/api")
	api.GET("/health", healthHandler.Check)
	api.GET("/videos", optionalAuth, videoHandler.Feed)
	api.GET("/videos/:id/comments", commentHandler.List)

	public := api.Group("")
	if d.AuthLimiter != nil {
		public.Use(middleware.RateLimit(d.AuthLimiter, "auth", d.Logger))
	}
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	private := api.Group("")
	private.Use(requireAuth)
	{
		private.GET("/profile", profileHandler.Get)
		private.PUT("/profile", profileHandler.Update)

		private.POST("/upload", videoHandler.Upload)
		private.POST("/videos/:id/comments", commentHandler.Create)
		private.POST("/videos/:id/like", likeHandler.Like)
		private.POST("/videos/:id/unlike", likeHandler.Unlike)
		private.POST("/videos/:id/share", shareHandler.Share)

		private.GET("/chat/users", chatHandler.Users)
		private.GET("/chat/:user_id/messages", chatHandler.Messages)
		private.POST("/chat/:user_id/send", chatHandler.Send)
	}

	return r
}
