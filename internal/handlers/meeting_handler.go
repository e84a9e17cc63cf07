package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/dtos"
	"github.com/adityaraj-dev/MeetFlow/internal/middlewares"
	"github.com/adityaraj-dev/MeetFlow/internal/models"
	"github.com/adityaraj-dev/MeetFlow/internal/repositories"
	"github.com/adityaraj-dev/MeetFlow/internal/services"
	ws "github.com/adityaraj-dev/MeetFlow/internal/websocket"
)

// CallStore is the directory surface the REST handlers need beyond the
// lifecycle controller.
type CallStore interface {
	Get(ctx context.Context, id string) (*models.CallRecord, error)
	AddMember(ctx context.Context, id string, userID string) error
	MarkEnded(ctx context.Context, id string) error
}

type MeetingHandler struct {
	lifecycle *services.SessionLifecycleController
	pool      *services.SynchronizerPool
	calls     CallStore
	hub       *ws.Hub
	logger    zerolog.Logger
}

func NewMeetingHandler(
	lifecycle *services.SessionLifecycleController,
	pool *services.SynchronizerPool,
	calls CallStore,
	hub *ws.Hub,
	logger zerolog.Logger,
) *MeetingHandler {
	return &MeetingHandler{
		lifecycle: lifecycle,
		pool:      pool,
		calls:     calls,
		hub:       hub,
		logger:    logger.With().Str("component", "meeting_handler").Logger(),
	}
}

// CreateMeeting creates an instant meeting or schedules one. The call
// identifier is generated server side and the create is idempotent on
// the directory, so client retries cannot duplicate a meeting.
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	user := middlewares.GetIdentity(c)

	var req dtos.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handle, err := h.lifecycle.CreateOrJoinSession(c.Request.Context(), user, uuid.NewString(), services.ScheduleOptions{
		StartsAt:    req.StartsAt,
		Description: req.Description,
		Scheduled:   req.Scheduled(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dtos.NewMeetingResponse(*handle.Record(), h.lifecycle.BuildJoinLink(handle)))
}

// GetMeeting returns one call record.
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	call, err := h.calls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		h.respondError(c, &services.RemoteError{Op: "get", Err: err})
		return
	}

	c.JSON(http.StatusOK, dtos.NewMeetingResponse(*call, ""))
}

// JoinMeeting runs the idempotent get-or-create for a known identifier
// and provisions the companion chat channel once the call is confirmed.
func (h *MeetingHandler) JoinMeeting(c *gin.Context) {
	user := middlewares.GetIdentity(c)
	id := c.Param("id")

	handle, err := h.lifecycle.CreateOrJoinSession(c.Request.Context(), user, id, services.ScheduleOptions{})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Joining adds the caller to the membership set so the call shows up
	// in their list. Failure here is not fatal to the join itself.
	if err := h.calls.AddMember(c.Request.Context(), id, user.UserID); err != nil {
		h.logger.Warn().Err(err).Str("call_id", id).Msg("failed to record membership")
	}

	c.JSON(http.StatusOK, dtos.NewMeetingResponse(*handle.Record(), h.lifecycle.BuildJoinLink(handle)))
}

// ProvisionChat connects the user to the chat provider and ensures the
// meeting's channel exists.
func (h *MeetingHandler) ProvisionChat(c *gin.Context) {
	user := middlewares.GetIdentity(c)

	// The channel id derives from the call identifier, so the call must
	// be confirmed to exist before the provider is touched.
	call, err := h.calls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		h.respondError(c, &services.RemoteError{Op: "get", Err: err})
		return
	}

	ref, err := h.lifecycle.ProvisionChat(c.Request.Context(), user, call.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.ChatChannelResponse{
		ChannelID:   ref.ID,
		ChannelType: ref.Type,
		DisplayName: ref.Name,
	})
}

// ResolveJoinInput turns a pasted link or bare identifier into a meeting
// target.
func (h *MeetingHandler) ResolveJoinInput(c *gin.Context) {
	var req dtos.ResolveJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := services.ParseJoinInput(req.Link)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.ResolveJoinResponse{
		ID:       id,
		JoinLink: h.lifecycle.JoinLink(id),
	})
}

// ListMeetings returns the user's calls classified into ended and
// upcoming buckets, evaluated against the current wall clock.
func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	user := middlewares.GetIdentity(c)

	sync := h.pool.ForUser(user)
	now := time.Now()

	resp := dtos.CallListResponse{
		FetchedAt: sync.Snapshot().FetchedAt,
		Loading:   sync.IsLoading(),
		Ended:     h.toResponses(sync.Ended(now)),
		Upcoming:  h.toResponses(sync.Upcoming(now)),
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshMeetings triggers an immediate re-fetch ahead of the next poll.
func (h *MeetingHandler) RefreshMeetings(c *gin.Context) {
	user := middlewares.GetIdentity(c)

	sync := h.pool.ForUser(user)
	sync.Refresh(c.Request.Context())

	c.Status(http.StatusNoContent)
}

// EndMeeting ends the call for every participant. Not available for
// personal rooms, which only support self-leave.
func (h *MeetingHandler) EndMeeting(c *gin.Context) {
	id := c.Param("id")

	if c.Query("personal") == "true" {
		c.JSON(http.StatusForbidden, gin.H{"error": "personal rooms cannot be ended for everyone"})
		return
	}

	if err := h.calls.MarkEnded(c.Request.Context(), id); err != nil {
		h.respondError(c, &services.RemoteError{Op: "mark-ended", Err: err})
		return
	}

	if room := h.hub.GetRoom(id); room != nil {
		room.Broadcast(ws.NewMessage(ws.MessageCallEnded, ws.CallEndedPayload{
			CallID: id,
			Reason: "ended_by_participant",
		}))
	}
	h.hub.CloseRoom(id)

	c.Status(http.StatusNoContent)
}

func (h *MeetingHandler) toResponses(calls []models.CallRecord) []dtos.MeetingResponse {
	out := make([]dtos.MeetingResponse, 0, len(calls))
	for _, call := range calls {
		out = append(out, dtos.NewMeetingResponse(call, ""))
	}
	return out
}

// respondError maps the service error taxonomy onto HTTP responses, one
// user-facing message per failed action.
func (h *MeetingHandler) respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var remoteErr *services.RemoteError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Error()})
	case errors.Is(err, services.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, services.ErrClientUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	case errors.As(err, &remoteErr):
		h.logger.Error().Err(remoteErr).Msg("remote operation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": remoteErr.Error()})
	default:
		h.logger.Error().Err(err).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
