package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/middleware"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewProfileHandler returns a ProfileHandler reading and writing users.
func NewProfileHandler(users repository.UserRepository, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, logger: logger}
}

type profileResponse struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
	Bio            string `json:"bio"`
}

// updateProfileRequest uses a pointer so an absent bio can be told apart
// from an empty one.
type updateProfileRequest struct {
	Bio *string `json:"bio" binding:"omitempty,max=256"`
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, profileResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		Bio:            user.Bio,
	})
}

// Update handles PUT /api/profile
//
// Only the bio can change. A body without "bio" leaves it as it was.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid profile data", err)
		return
	}

	if req.Bio != nil {
		userID := middleware.CurrentUserID(c)
		if _, err := h.users.UpdateBio(c.Request.Context(), userID, *req.Bio); err != nil {
			serverError(c, h.logger, "failed to update profile", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}
