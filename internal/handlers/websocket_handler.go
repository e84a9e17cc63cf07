package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/middlewares"
	"github.com/adityaraj-dev/MeetFlow/internal/models"
	"github.com/adityaraj-dev/MeetFlow/internal/services"
	ws "github.com/adityaraj-dev/MeetFlow/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now, restrict in production
	},
}

type MeetingRoomHandler struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

func NewMeetingRoomHandler(hub *ws.Hub, logger zerolog.Logger) *MeetingRoomHandler {
	return &MeetingRoomHandler{
		hub:    hub,
		logger: logger.With().Str("component", "meeting_room").Logger(),
	}
}

// HandleWebSocket is the meeting room endpoint. MUST be protected by
// WebSocketAuthMiddleware.
func (h *MeetingRoomHandler) HandleWebSocket(c *gin.Context) {
	auth, err := middlewares.GetMeetingAuth(c)
	if err != nil {
		h.logger.Error().Err(err).Msg("missing authentication context")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(auth.Call.ID, auth.User, conn, h.hub)
	room := h.hub.AddClient(auth.Call.ID, client)

	// The state machine owns this participant's view state for the life
	// of the connection. Navigation after leave is a message back to the
	// client; the actual route change is the client's job.
	machine := services.NewMeetingStateMachine(client, auth.PersonalRoom, func() {
		select {
		case client.Send <- ws.NewMessage(ws.MessageLeft, nil):
		default:
		}
	}, h.logger)

	state := ws.NewConnectionState()
	h.sendRoomState(room, client, auth.PersonalRoom, state)

	room.BroadcastExcept(client.UserID, ws.NewMessage(ws.MessageParticipantJoined, ws.ParticipantPayload{
		UserID:   client.UserID,
		Username: client.Username,
	}))

	go h.forwardViewState(client, machine)
	go h.readPump(client, machine)
	go h.writePump(client)
}

// sendRoomState sends the initial room snapshot to a newly connected
// client, exactly once per connection.
func (h *MeetingRoomHandler) sendRoomState(room *ws.Room, client *ws.Client, personal bool, state *ws.ConnectionState) {
	if state.HasRoomStateSent() {
		return
	}

	msg := ws.NewMessage(ws.MessageRoomState, ws.RoomStatePayload{
		CallID:       room.CallID,
		Participants: room.Participants(),
		PersonalRoom: personal,
	})

	select {
	case client.Send <- msg:
		state.SetRoomStateSent(true)
	default:
		h.logger.Warn().Str("user_id", client.UserID).Msg("failed to send room_state")
	}
}

// forwardViewState pushes every view-state change down the socket.
func (h *MeetingRoomHandler) forwardViewState(client *ws.Client, machine *services.MeetingStateMachine) {
	views, unsubscribe := machine.Subscribe()
	defer unsubscribe()

	for {
		select {
		case view, ok := <-views:
			if !ok {
				return
			}
			select {
			case client.Send <- ws.NewMessage(ws.MessageViewState, view):
			default:
			}
		case <-client.Done:
			return
		}
	}
}

// readPump reads client messages and drives the state machine. A
// dropped connection counts as a leave so device and room cleanup still
// runs.
func (h *MeetingRoomHandler) readPump(client *ws.Client, machine *services.MeetingStateMachine) {
	defer func() {
		h.logger.Debug().Str("user_id", client.UserID).Msg("cleaning up meeting client")
		machine.Leave()
		client.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg ws.Envelope
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Str("user_id", client.UserID).Msg("unexpected websocket close")
			}
			return
		}

		switch msg.Type {
		case ws.MessageJoined:
			// External calling-state signal: the media layer reports the
			// client fully joined.
			machine.MarkJoined()

		case ws.MessageSetLayout:
			var payload ws.SetLayoutPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.logger.Warn().Err(err).Msg("malformed set_layout payload")
				continue
			}
			if err := machine.SetLayout(payload.Layout); err != nil {
				h.logger.Debug().Err(err).Str("user_id", client.UserID).Msg("layout change rejected")
			}

		case ws.MessageTogglePeople:
			if err := machine.ToggleParticipants(); err != nil {
				h.logger.Debug().Err(err).Str("user_id", client.UserID).Msg("participants toggle rejected")
			}

		case ws.MessageToggleChat:
			if err := machine.ToggleChat(); err != nil {
				h.logger.Debug().Err(err).Str("user_id", client.UserID).Msg("chat toggle rejected")
			}

		case ws.MessageToggleTrack:
			var payload ws.ToggleTrackPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.logger.Warn().Err(err).Msg("malformed toggle_track payload")
				continue
			}
			h.handleToggleTrack(client, payload)

		case ws.MessageLeaveCall:
			return

		case ws.MessagePing:
			select {
			case client.Send <- ws.NewMessage(ws.MessagePong, struct{}{}):
			default:
			}

		default:
			h.logger.Warn().Str("type", msg.Type).Msg("unknown message type")
		}
	}
}

func (h *MeetingRoomHandler) handleToggleTrack(client *ws.Client, payload ws.ToggleTrackPayload) {
	var err error
	switch payload.Track {
	case models.TrackCamera:
		err = client.SetCameraEnabled(payload.Enabled)
	case models.TrackMicrophone:
		err = client.SetMicrophoneEnabled(payload.Enabled)
	default:
		h.logger.Warn().Str("track", string(payload.Track)).Msg("unknown track kind")
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", client.UserID).Msg("track toggle failed")
	}
}

// writePump writes messages to the WebSocket.
func (h *MeetingRoomHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteJSON(message); err != nil {
				h.logger.Warn().Err(err).Str("user_id", client.UserID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Done:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
