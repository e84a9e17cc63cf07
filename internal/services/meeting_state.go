package services

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// ParticipantSession is the participant's handle on the live session.
// The state machine issues commands through it but never replaces it.
type ParticipantSession interface {
	PublishedTracks() []models.TrackKind
	SetCameraEnabled(enabled bool) error
	SetMicrophoneEnabled(enabled bool) error
	Leave() error
}

// MeetingStateMachine owns one participant's in-meeting view state.
// It moves Connecting -> Joined -> Left; Left is terminal. While
// Connecting, layout and panel interactions are rejected so the UI and
// session side effects cannot desynchronize.
type MeetingStateMachine struct {
	logger       zerolog.Logger
	personalRoom bool
	navigate     func()

	mu          sync.Mutex
	state       models.CallingState
	view        models.SessionViewState
	session     ParticipantSession
	subscribers map[int]chan models.SessionViewState
	nextSubID   int
}

// NewMeetingStateMachine starts in Connecting with the default layout.
// session may be nil if the underlying call handle is transiently
// unavailable; Leave still proceeds to navigation in that case.
func NewMeetingStateMachine(session ParticipantSession, personalRoom bool, navigate func(), logger zerolog.Logger) *MeetingStateMachine {
	return &MeetingStateMachine{
		logger:       logger.With().Str("component", "meeting_state").Logger(),
		personalRoom: personalRoom,
		navigate:     navigate,
		state:        models.CallingStateConnecting,
		view:         models.SessionViewState{Layout: models.LayoutSpeakerLeft},
		session:      session,
		subscribers:  make(map[int]chan models.SessionViewState),
	}
}

// State returns the current calling state.
func (m *MeetingStateMachine) State() models.CallingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View returns the current view state.
func (m *MeetingStateMachine) View() models.SessionViewState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// MarkJoined records the external fully-joined signal. It is a no-op
// unless the machine is still Connecting.
func (m *MeetingStateMachine) MarkJoined() {
	m.mu.Lock()
	if m.state != models.CallingStateConnecting {
		m.mu.Unlock()
		return
	}
	m.state = models.CallingStateJoined
	m.view.Joined = true
	m.publishViewLocked()
	m.mu.Unlock()
}

// SetLayout switches the active layout. Only legal while Joined.
func (m *MeetingStateMachine) SetLayout(mode models.LayoutMode) error {
	if !models.ValidLayout(mode) {
		return &ValidationError{Field: "layout", Reason: "unknown layout mode"}
	}

	m.mu.Lock()
	if m.state != models.CallingStateJoined {
		m.mu.Unlock()
		return ErrNotJoined
	}
	m.view.Layout = mode
	m.publishViewLocked()
	m.mu.Unlock()
	return nil
}

// ToggleParticipants flips the participants panel. Both panels may be
// open at once.
func (m *MeetingStateMachine) ToggleParticipants() error {
	m.mu.Lock()
	if m.state != models.CallingStateJoined {
		m.mu.Unlock()
		return ErrNotJoined
	}
	m.view.ShowParticipants = !m.view.ShowParticipants
	m.publishViewLocked()
	m.mu.Unlock()
	return nil
}

// ToggleChat flips the chat panel.
func (m *MeetingStateMachine) ToggleChat() error {
	m.mu.Lock()
	if m.state != models.CallingStateJoined {
		m.mu.Unlock()
		return ErrNotJoined
	}
	m.view.ShowChat = !m.view.ShowChat
	m.publishViewLocked()
	m.mu.Unlock()
	return nil
}

// ChatPanelVisible reports whether the chat sub-panel should render:
// the panel must be toggled on, the chat client ready, and the channel
// identifier resolved. Anything less renders nothing, not an error.
func (m *MeetingStateMachine) ChatPanelVisible(chatReady bool, channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view.ShowChat && chatReady && channelID != ""
}

// CanEndForAll reports whether this participant may end the call for
// everyone. Personal rooms only offer self-leave.
func (m *MeetingStateMachine) CanEndForAll() bool {
	return !m.personalRoom
}

// Leave shuts down published devices, terminates the session, then
// navigates away, in that order. Device shutdown is per-track: a
// participant publishing only audio has only the microphone disabled.
// Shutdown failures are logged and never block teardown. A nil session
// skips device shutdown and teardown but still navigates.
func (m *MeetingStateMachine) Leave() {
	m.mu.Lock()
	if m.state == models.CallingStateLeft {
		m.mu.Unlock()
		return
	}
	m.state = models.CallingStateLeft
	m.view.Joined = false
	sess := m.session
	m.mu.Unlock()

	if sess != nil {
		published := make(map[models.TrackKind]bool)
		for _, track := range sess.PublishedTracks() {
			published[track] = true
		}
		if published[models.TrackCamera] {
			if err := sess.SetCameraEnabled(false); err != nil {
				m.logger.Warn().Err(err).Msg("failed to disable camera on leave")
			}
		}
		if published[models.TrackMicrophone] {
			if err := sess.SetMicrophoneEnabled(false); err != nil {
				m.logger.Warn().Err(err).Msg("failed to disable microphone on leave")
			}
		}

		if err := sess.Leave(); err != nil {
			m.logger.Warn().Err(err).Msg("session leave failed")
		}
	}

	if m.navigate != nil {
		m.navigate()
	}

	m.mu.Lock()
	m.publishViewLocked()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	m.mu.Unlock()
}

// Subscribe registers a view-state observer. The channel is closed when
// the machine reaches Left.
func (m *MeetingStateMachine) Subscribe() (<-chan models.SessionViewState, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan models.SessionViewState, 1)
	if m.state == models.CallingStateLeft {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}
}

// publishViewLocked fans the current view out to subscribers. Callers
// hold m.mu, which is the same lock unsubscribe and Leave close the
// channels under, so a send and a close can never interleave. Sends
// cannot block: channels are buffered and a full buffer drops the
// intermediate view.
func (m *MeetingStateMachine) publishViewLocked() {
	for _, ch := range m.subscribers {
		select {
		case ch <- m.view:
		default:
		}
	}
}
