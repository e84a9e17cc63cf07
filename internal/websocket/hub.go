package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// Client is one participant's WebSocket connection to a meeting room.
type Client struct {
	ID       uuid.UUID
	CallID   string
	UserID   string
	Username string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan interface{}
	Done     chan struct{}

	mu     sync.RWMutex
	tracks map[models.TrackKind]bool
}

// NewClient wires a connection into a room-ready client.
func NewClient(callID string, user models.Identity, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:       uuid.New(),
		CallID:   callID,
		UserID:   user.UserID,
		Username: user.Username,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan interface{}, 256),
		Done:     make(chan struct{}),
		tracks:   make(map[models.TrackKind]bool),
	}
}

// Hub manages all active meeting rooms, keyed by call id.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// Room holds every participant currently connected to one call.
type Room struct {
	CallID    string
	StartTime time.Time
	Done      chan struct{}

	mu      sync.RWMutex
	clients map[string]*Client // key: user id
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*Room),
	}
}

func NewRoom(callID string) *Room {
	return &Room{
		CallID:    callID,
		StartTime: time.Now(),
		Done:      make(chan struct{}),
		clients:   make(map[string]*Client),
	}
}

// AddClient adds a client to the room for its call, creating the room if
// needed. A second connection for the same user replaces the first.
func (h *Hub) AddClient(callID string, client *Client) *Room {
	h.mu.Lock()
	room, exists := h.rooms[callID]
	if !exists {
		room = NewRoom(callID)
		h.rooms[callID] = room
	}
	h.mu.Unlock()

	room.mu.Lock()
	if old, ok := room.clients[client.UserID]; ok && old.ID != client.ID {
		old.Close()
	}
	room.clients[client.UserID] = client
	room.mu.Unlock()

	return room
}

// GetRoom returns the room for a call id, or nil.
func (h *Hub) GetRoom(callID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.rooms[callID]
}

// RemoveClient removes a user from a room and drops the room once empty.
func (h *Hub) RemoveClient(callID string, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[callID]
	if !exists {
		return
	}

	room.mu.Lock()
	delete(room.clients, userID)
	empty := len(room.clients) == 0
	room.mu.Unlock()

	if empty {
		delete(h.rooms, callID)
	}
}

// CloseRoom disconnects every participant and removes the room. Used
// when the call is ended for everyone.
func (h *Hub) CloseRoom(callID string) {
	h.mu.Lock()
	room, exists := h.rooms[callID]
	if exists {
		delete(h.rooms, callID)
	}
	h.mu.Unlock()

	if !exists {
		return
	}

	close(room.Done)

	room.mu.Lock()
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		clients = append(clients, c)
	}
	room.clients = make(map[string]*Client)
	room.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

// Participants lists the usernames currently in the room.
func (r *Room) Participants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		names = append(names, c.Username)
	}
	return names
}

// Count returns the number of connected participants.
func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

// Broadcast sends a message to every participant.
func (r *Room) Broadcast(message interface{}) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.Send <- message:
		default:
		}
	}
}

// BroadcastExcept sends a message to everyone but the given user.
func (r *Room) BroadcastExcept(userID string, message interface{}) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.UserID != userID {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.Send <- message:
		default:
		}
	}
}

// PublishedTracks returns the tracks the client currently publishes.
func (c *Client) PublishedTracks() []models.TrackKind {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tracks := make([]models.TrackKind, 0, len(c.tracks))
	for kind, on := range c.tracks {
		if on {
			tracks = append(tracks, kind)
		}
	}
	return tracks
}

// SetCameraEnabled publishes or unpublishes the camera track and tells
// the rest of the room.
func (c *Client) SetCameraEnabled(enabled bool) error {
	return c.setTrack(models.TrackCamera, enabled)
}

// SetMicrophoneEnabled publishes or unpublishes the microphone track and
// tells the rest of the room.
func (c *Client) SetMicrophoneEnabled(enabled bool) error {
	return c.setTrack(models.TrackMicrophone, enabled)
}

func (c *Client) setTrack(kind models.TrackKind, enabled bool) error {
	if !c.IsConnected() {
		return ErrClientClosed
	}

	c.mu.Lock()
	c.tracks[kind] = enabled
	c.mu.Unlock()

	if room := c.Hub.GetRoom(c.CallID); room != nil {
		room.BroadcastExcept(c.UserID, NewMessage(MessageTrackToggled, TrackToggledPayload{
			UserID:  c.UserID,
			Track:   kind,
			Enabled: enabled,
		}))
	}
	return nil
}

// Leave removes the client from its room and notifies the remaining
// participants.
func (c *Client) Leave() error {
	if room := c.Hub.GetRoom(c.CallID); room != nil {
		room.BroadcastExcept(c.UserID, NewMessage(MessageParticipantLeft, ParticipantPayload{
			UserID:   c.UserID,
			Username: c.Username,
		}))
	}

	c.Hub.RemoveClient(c.CallID, c.UserID)
	return nil
}

// Close marks the client closed and tears down the connection. Send
// stays open: room broadcasts may still be racing a close, and the
// write pump exits on Done rather than on channel close.
func (c *Client) Close() {
	c.mu.Lock()
	select {
	case <-c.Done:
		c.mu.Unlock()
		return
	default:
	}
	close(c.Done)
	c.mu.Unlock()

	if c.Conn != nil {
		c.Conn.Close()
	}
}

// IsConnected checks if client is still connected.
func (c *Client) IsConnected() bool {
	select {
	case <-c.Done:
		return false
	default:
		return true
	}
}
