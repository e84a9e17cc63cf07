package websocket

import (
	"encoding/json"
	"sync"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// Message types exchanged with meeting clients.
const (
	// client -> server
	MessageJoined       = "joined"
	MessageSetLayout    = "set_layout"
	MessageToggleChat   = "toggle_chat"
	MessageToggleTrack  = "toggle_track"
	MessageTogglePeople = "toggle_participants"
	MessageLeaveCall    = "leave_call"
	MessagePing         = "ping"

	// server -> client
	MessageRoomState         = "room_state"
	MessageViewState         = "view_state"
	MessageParticipantJoined = "participant_joined"
	MessageParticipantLeft   = "participant_left"
	MessageTrackToggled      = "track_toggled"
	MessageCallEnded         = "call_ended"
	MessageLeft              = "left"
	MessagePong              = "pong"
)

// Envelope is the standard message format for all WebSocket traffic.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage builds an outbound message; payloads that fail to marshal
// become null rather than dropping the message.
func NewMessage(messageType string, payload interface{}) map[string]interface{} {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return map[string]interface{}{
		"type":    messageType,
		"payload": json.RawMessage(data),
	}
}

// RoomStatePayload is sent to a client right after it connects.
type RoomStatePayload struct {
	CallID       string   `json:"call_id"`
	Participants []string `json:"participants"`
	PersonalRoom bool     `json:"personal_room"`
}

// ParticipantPayload announces a join or leave to the rest of the room.
type ParticipantPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// TrackToggledPayload announces a published-track change.
type TrackToggledPayload struct {
	UserID  string           `json:"user_id"`
	Track   models.TrackKind `json:"track"`
	Enabled bool             `json:"enabled"`
}

// SetLayoutPayload selects the active layout.
type SetLayoutPayload struct {
	Layout models.LayoutMode `json:"layout"`
}

// ToggleTrackPayload publishes or unpublishes a local track.
type ToggleTrackPayload struct {
	Track   models.TrackKind `json:"track"`
	Enabled bool             `json:"enabled"`
}

// CallEndedPayload tells every participant the call was ended.
type CallEndedPayload struct {
	CallID string `json:"call_id"`
	Reason string `json:"reason"`
}

// ConnectionState tracks per-connection bookkeeping that must happen
// exactly once.
type ConnectionState struct {
	mu            sync.RWMutex
	roomStateSent bool
}

func NewConnectionState() *ConnectionState {
	return &ConnectionState{}
}

// HasRoomStateSent returns true if room_state was already sent.
func (cs *ConnectionState) HasRoomStateSent() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.roomStateSent
}

// SetRoomStateSent marks room_state as sent.
func (cs *ConnectionState) SetRoomStateSent(sent bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.roomStateSent = sent
}
