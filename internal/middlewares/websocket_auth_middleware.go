package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
	"github.com/adityaraj-dev/MeetFlow/internal/utils"
)

type wsAuthKey struct{}

// MeetingAuthContext holds authenticated WebSocket connection data.
type MeetingAuthContext struct {
	User         models.Identity
	Call         *models.CallRecord
	PersonalRoom bool
}

// CallLoader is the subset of the call directory the middleware needs.
type CallLoader interface {
	Get(ctx context.Context, id string) (*models.CallRecord, error)
}

// WebSocketAuthMiddleware authenticates meeting WebSocket connections.
// Browsers cannot set headers on the upgrade request, so the token
// travels as a query parameter. The call is loaded from the directory
// before the upgrade; a connection to a nonexistent call never upgrades.
func WebSocketAuthMiddleware(jwtSecret string, calls CallLoader, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		callID := c.Query("call_id")
		if callID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "call_id required",
			})
			return
		}

		call, err := calls.Get(c.Request.Context(), callID)
		if err != nil {
			logger.Warn().Err(err).Str("call_id", callID).Msg("call lookup failed for websocket auth")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "call not found",
			})
			return
		}

		authCtx := &MeetingAuthContext{
			User: models.Identity{
				UserID:   claims.UserID,
				Username: claims.Username,
			},
			Call:         call,
			PersonalRoom: c.Query("personal") == "true",
		}

		ctx := context.WithValue(c.Request.Context(), wsAuthKey{}, authCtx)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetMeetingAuth retrieves the authentication context from the request.
func GetMeetingAuth(c *gin.Context) (*MeetingAuthContext, error) {
	val := c.Request.Context().Value(wsAuthKey{})
	if val == nil {
		return nil, errors.New("websocket authentication context not found")
	}

	auth, ok := val.(*MeetingAuthContext)
	if !ok {
		return nil, errors.New("invalid websocket authentication context type")
	}

	return auth, nil
}
