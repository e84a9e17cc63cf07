package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/chat"
	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// DefaultDescription is used when a meeting is created without one.
const DefaultDescription = "Instant Meeting"

const meetingPathSegment = "/meeting/"

// ScheduleOptions carries the caller's intent for a new session.
// Scheduled meetings must come with a start time that is not in the
// past; instant meetings start now.
type ScheduleOptions struct {
	StartsAt    *time.Time
	Description string
	Scheduled   bool
}

// SessionHandle wraps a confirmed call record. It is created only after
// the remote get-or-create succeeded, so a handle never refers to a
// partially initialized session.
type SessionHandle struct {
	call *models.CallRecord
}

func (h *SessionHandle) ID() string {
	return h.call.ID
}

func (h *SessionHandle) Record() *models.CallRecord {
	return h.call
}

// SessionLifecycleController creates or retrieves a call session and its
// companion chat channel.
type SessionLifecycleController struct {
	calls   CallDirectory
	chat    ChatDirectory
	baseURL string
	logger  zerolog.Logger
	now     func() time.Time
}

func NewSessionLifecycleController(calls CallDirectory, chatDir ChatDirectory, baseURL string, logger zerolog.Logger) *SessionLifecycleController {
	return &SessionLifecycleController{
		calls:   calls,
		chat:    chatDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "session_lifecycle").Logger(),
		now:     time.Now,
	}
}

// CreateOrJoinSession runs the idempotent get-or-create for the given
// call identifier. Calling it twice with the same identifier returns
// handles to the same underlying call. Validation failures are raised
// before any remote call.
func (c *SessionLifecycleController) CreateOrJoinSession(ctx context.Context, user models.Identity, id string, opts ScheduleOptions) (*SessionHandle, error) {
	if user.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if c.calls == nil {
		return nil, ErrClientUnavailable
	}
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "required"}
	}

	now := c.now()
	if opts.Scheduled {
		if opts.StartsAt == nil {
			return nil, &ValidationError{Field: "starts_at", Reason: "required for scheduled meetings"}
		}
		if opts.StartsAt.Before(now) {
			return nil, &ValidationError{Field: "starts_at", Reason: "cannot schedule meetings in the past"}
		}
	}

	startsAt := now
	if opts.StartsAt != nil {
		startsAt = *opts.StartsAt
	}

	description := opts.Description
	if description == "" {
		description = DefaultDescription
	}

	record, err := c.calls.GetOrCreate(ctx, id, models.CreateCallParams{
		CreatedBy:   user.UserID,
		StartsAt:    startsAt.Format(time.RFC3339),
		Members:     []string{user.UserID},
		Description: description,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("call_id", id).Msg("call get-or-create failed")
		return nil, &RemoteError{Op: "get-or-create", Err: err}
	}

	return &SessionHandle{call: record}, nil
}

// ProvisionChat connects the user to the chat provider and ensures the
// call's channel exists. It must only run after the call get-or-create
// succeeded, since the channel id and name derive from the confirmed
// call identifier. Concurrent invocations for the same call are safe;
// the provider treats channel creation as idempotent.
func (c *SessionLifecycleController) ProvisionChat(ctx context.Context, user models.Identity, callID string) (chat.ChannelRef, error) {
	if user.UserID == "" {
		return chat.ChannelRef{}, ErrNotAuthenticated
	}
	if c.chat == nil {
		return chat.ChannelRef{}, ErrClientUnavailable
	}

	ref := chat.NewChannelRef(callID)

	if err := c.chat.ConnectUser(ctx, user); err != nil {
		c.logger.Error().Err(err).Str("call_id", callID).Msg("chat connect failed")
		return chat.ChannelRef{}, &RemoteError{Op: "connect-user", Err: err}
	}

	if err := c.chat.WatchChannel(ctx, ref); err != nil {
		c.logger.Error().Err(err).Str("channel_id", ref.ID).Msg("chat channel watch failed")
		return chat.ChannelRef{}, &RemoteError{Op: "watch-channel", Err: err}
	}

	return ref, nil
}

// BuildJoinLink produces the shareable meeting URL. No network call.
func (c *SessionLifecycleController) BuildJoinLink(h *SessionHandle) string {
	return c.JoinLink(h.ID())
}

// JoinLink is BuildJoinLink for a bare call identifier.
func (c *SessionLifecycleController) JoinLink(id string) string {
	return c.baseURL + meetingPathSegment + id
}

// ParseJoinInput extracts a call identifier from manual "join by link"
// input: either a bare identifier, or a URL containing "/meeting/" from
// which the single following path segment is taken, with any query,
// fragment, or deeper path stripped.
func ParseJoinInput(raw string) (string, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return "", &ValidationError{Field: "link", Reason: "required"}
	}

	id := input
	if idx := strings.Index(input, meetingPathSegment); idx >= 0 {
		id = input[idx+len(meetingPathSegment):]
		if end := strings.IndexAny(id, "?#/"); end >= 0 {
			id = id[:end]
		}
	}

	if id == "" {
		return "", &ValidationError{Field: "link", Reason: "no meeting identifier found"}
	}
	return id, nil
}
