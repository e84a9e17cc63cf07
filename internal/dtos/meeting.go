package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

var validate = validator.New()

// CreateMeetingRequest creates an instant meeting or schedules one.
// Scheduled meetings must carry a start time; the service additionally
// rejects start times in the past.
type CreateMeetingRequest struct {
	Type        string     `json:"type" validate:"required,oneof=instant scheduled"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	Description string     `json:"description,omitempty" validate:"max=500"`
}

func (r *CreateMeetingRequest) Validate() error {
	return validate.Struct(r)
}

func (r *CreateMeetingRequest) Scheduled() bool {
	return r.Type == "scheduled"
}

// ResolveJoinRequest carries manual "join by link" input.
type ResolveJoinRequest struct {
	Link string `json:"link"`
}

// ResolveJoinResponse is the resolved meeting target.
type ResolveJoinResponse struct {
	ID       string `json:"id"`
	JoinLink string `json:"join_link"`
}

// MeetingResponse is the API shape of one call record.
type MeetingResponse struct {
	ID          string     `json:"id"`
	CreatedBy   string     `json:"created_by"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Description string     `json:"description"`
	JoinLink    string     `json:"join_link,omitempty"`
}

// NewMeetingResponse maps a call record into the API shape.
func NewMeetingResponse(call models.CallRecord, joinLink string) MeetingResponse {
	return MeetingResponse{
		ID:          call.ID,
		CreatedBy:   call.CreatedBy,
		StartsAt:    call.StartsAt,
		EndedAt:     call.EndedAt,
		Description: call.Description,
		JoinLink:    joinLink,
	}
}

// CallListResponse is the classified call list for the current user.
type CallListResponse struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Loading   bool              `json:"loading"`
	Ended     []MeetingResponse `json:"ended"`
	Upcoming  []MeetingResponse `json:"upcoming"`
}

// ChatChannelResponse is the provisioned chat channel for a meeting.
type ChatChannelResponse struct {
	ChannelID   string `json:"channel_id"`
	ChannelType string `json:"channel_type"`
	DisplayName string `json:"display_name"`
}
