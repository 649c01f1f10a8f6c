package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// ContextKeyUser holds the *models.User resolved from the bearer token.
const ContextKeyUser = "current_user"

// TokenValidator turns a bearer token into a user id. *auth.Codec
// satisfies it.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// UserLookup is the slice of the user repository the middleware needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware rejects the request unless it carries a valid bearer
// token for a user that still exists. The user is stored under
// ContextKeyUser for the handlers downstream.
func AuthMiddleware(tokens TokenValidator, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Token is missing!",
			})
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Token is invalid!",
				"error":   "expected: Bearer <token>",
			})
			return
		}

		userID, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Token is invalid!",
				"error":   err.Error(),
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			// A token for a deleted account is not a credential.
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "Token is invalid!",
					"error":   "user no longer exists",
				})
				return
			}
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "internal server error",
			})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// OptionalAuth resolves the user when a usable token is present and
// otherwise lets the request through anonymously. It never aborts.
func OptionalAuth(tokens TokenValidator, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if ok {
			if userID, err := tokens.Validate(token); err == nil {
				if user, err := users.GetByID(c.Request.Context(), userID); err == nil {
					c.Set(ContextKeyUser, user)
				}
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// CurrentUser returns the authenticated user, or nil on anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentUserID returns 0 when nobody is signed in.
func CurrentUserID(c *gin.Context) int64 {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
