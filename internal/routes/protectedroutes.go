package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/adityaraj-dev/MeetFlow/internal/handlers"
	"github.com/adityaraj-dev/MeetFlow/internal/middlewares"
)

func RegisterProtectedEndpoints(
	router *gin.Engine,
	meetingHandler *handlers.MeetingHandler,
	jwtSecret string,
) {
	protected := router.Group("/api")
	protected.Use(middlewares.AuthMiddleware(jwtSecret))

	protected.POST("/meetings", meetingHandler.CreateMeeting)
	protected.GET("/meetings", meetingHandler.ListMeetings)
	protected.POST("/meetings/refresh", meetingHandler.RefreshMeetings)
	protected.POST("/meetings/resolve", meetingHandler.ResolveJoinInput)

	protected.GET("/meetings/:id", meetingHandler.GetMeeting)
	protected.POST("/meetings/:id/join", meetingHandler.JoinMeeting)
	protected.POST("/meetings/:id/chat", meetingHandler.ProvisionChat)
	protected.POST("/meetings/:id/end", meetingHandler.EndMeeting)
}
