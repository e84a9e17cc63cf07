package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
	"github.com/adityaraj-dev/MeetFlow/internal/utils"
)

const identityContextKey = "identity"

// AuthMiddleware validates the Bearer token and stores the caller's
// identity in the gin context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := utils.ParseAccessToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(identityContextKey, models.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
		})

		c.Next()
	}
}

// GetIdentity retrieves the authenticated identity set by AuthMiddleware.
// The zero Identity is returned when no user is authenticated.
func GetIdentity(c *gin.Context) models.Identity {
	val, exists := c.Get(identityContextKey)
	if !exists {
		return models.Identity{}
	}

	identity, ok := val.(models.Identity)
	if !ok {
		return models.Identity{}
	}

	return identity
}
