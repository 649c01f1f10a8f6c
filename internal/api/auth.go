package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/auth"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
	"github.com/Helllokittti/tiktok-prototip/internal/validate"
)

// TokenCodec issues and checks bearer tokens. *auth.Codec satisfies it.
type TokenCodec interface {
	Issue(userID int64) (string, error)
	Validate(token string) (int64, error)
}

// AuthHandler serves register and login, the only routes that hand out
// tokens. Neither sits behind the auth middleware.
type AuthHandler struct {
	users  repository.UserRepository
	tokens TokenCodec
	logger *zap.Logger
}

// NewAuthHandler returns an AuthHandler issuing tokens with tokens.
func NewAuthHandler(users repository.UserRepository, tokens TokenCodec, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

// Username and email lengths follow the users table columns. The
// password limit is in bytes and checked in Register, see
// auth.MaxPasswordBytes.
type registerRequest struct {
	Username string `json:"username" binding:"required,max=512"`
	Email    string `json:"email" binding:"required,max=512"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const passwordTooLong = "Password must be at most 72 bytes"

// userSummary is the public part of an account returned by register and
// login.
type userSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register handles POST /api/register
//
// The username is checked before the email so a client always learns about
// the first clash. The unique keys in the database still decide races
// between two registrations.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validate.Missing(err) {
			badRequest(c, "Missing required fields", err)
			return
		}
		badRequest(c, "Invalid registration details", err)
		return
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		badRequest(c, passwordTooLong, nil)
		return
	}
	ctx := c.Request.Context()

	if _, err := h.users.GetByUsername(ctx, req.Username); err == nil {
		conflict(c, "Username already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		serverError(c, h.logger, "failed to register user", err)
		return
	}

	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		conflict(c, "Email already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		serverError(c, h.logger, "failed to register user", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		badRequest(c, passwordTooLong, nil)
		return
	}
	if err != nil {
		serverError(c, h.logger, "failed to register user", err)
		return
	}

	user, err := h.users.Create(ctx, req.Username, req.Email, hash)
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		conflict(c, "Username already exists")
		return
	case errors.Is(err, repository.ErrEmailTaken):
		conflict(c, "Email already exists")
		return
	case err != nil:
		serverError(c, h.logger, "failed to register user", err)
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userSummary{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}

// Login handles POST /api/login
//
// An unknown username and a wrong password get the same answer so the
// endpoint cannot be used to discover which accounts exist.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields", err)
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		serverError(c, h.logger, "failed to log in", err)
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverError(c, h.logger, "failed to log in", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userSummary{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}
