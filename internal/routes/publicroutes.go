package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/handlers"
	"github.com/adityaraj-dev/MeetFlow/internal/middlewares"
)

func RegisterPublicEndpoints(
	router *gin.Engine,
	roomHandler *handlers.MeetingRoomHandler,
	calls middlewares.CallLoader,
	jwtSecret string,
	logger zerolog.Logger,
) {
	public := router.Group("/api")

	public.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket endpoint with token auth via query parameter.
	// Middleware validates the JWT and loads the call before upgrading.
	wsAuth := middlewares.WebSocketAuthMiddleware(jwtSecret, calls, logger)
	public.GET("/ws/meeting", wsAuth, roomHandler.HandleWebSocket)
}
