package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

type fakeSession struct {
	tracks     []models.TrackKind
	disableErr error

	order          []string
	cameraDisabled bool
	micDisabled    bool
	leaveCalls     int
}

func (f *fakeSession) PublishedTracks() []models.TrackKind { return f.tracks }

func (f *fakeSession) SetCameraEnabled(enabled bool) error {
	if !enabled {
		f.cameraDisabled = true
		f.order = append(f.order, "camera_off")
	}
	return f.disableErr
}

func (f *fakeSession) SetMicrophoneEnabled(enabled bool) error {
	if !enabled {
		f.micDisabled = true
		f.order = append(f.order, "mic_off")
	}
	return f.disableErr
}

func (f *fakeSession) Leave() error {
	f.leaveCalls++
	f.order = append(f.order, "leave")
	return nil
}

func newJoinedMachine(sess ParticipantSession, navigate func()) *MeetingStateMachine {
	m := NewMeetingStateMachine(sess, false, navigate, zerolog.Nop())
	m.MarkJoined()
	return m
}

func TestConnectingRejectsInteractions(t *testing.T) {
	m := NewMeetingStateMachine(&fakeSession{}, false, nil, zerolog.Nop())

	assert.Equal(t, models.CallingStateConnecting, m.State())
	assert.ErrorIs(t, m.SetLayout(models.LayoutGrid), ErrNotJoined)
	assert.ErrorIs(t, m.ToggleParticipants(), ErrNotJoined)
	assert.ErrorIs(t, m.ToggleChat(), ErrNotJoined)
}

func TestMarkJoinedEnablesInteractions(t *testing.T) {
	m := newJoinedMachine(&fakeSession{}, nil)

	assert.Equal(t, models.CallingStateJoined, m.State())
	assert.True(t, m.View().Joined)

	require.NoError(t, m.SetLayout(models.LayoutGrid))
	assert.Equal(t, models.LayoutGrid, m.View().Layout)
}

func TestSetLayoutRejectsUnknownMode(t *testing.T) {
	m := newJoinedMachine(&fakeSession{}, nil)

	var validationErr *ValidationError
	assert.ErrorAs(t, m.SetLayout("theater"), &validationErr)
	assert.Equal(t, models.LayoutSpeakerLeft, m.View().Layout, "default layout untouched")
}

func TestPanelsToggleIndependently(t *testing.T) {
	m := newJoinedMachine(&fakeSession{}, nil)

	require.NoError(t, m.ToggleParticipants())
	require.NoError(t, m.ToggleChat())

	view := m.View()
	assert.True(t, view.ShowParticipants)
	assert.True(t, view.ShowChat)

	require.NoError(t, m.ToggleChat())
	view = m.View()
	assert.True(t, view.ShowParticipants)
	assert.False(t, view.ShowChat)
}

func TestLeaveDisablesOnlyPublishedTracks(t *testing.T) {
	sess := &fakeSession{tracks: []models.TrackKind{models.TrackMicrophone}}
	navigated := false
	m := newJoinedMachine(sess, func() { navigated = true })

	m.Leave()

	assert.True(t, sess.micDisabled)
	assert.False(t, sess.cameraDisabled, "camera was never published")
	assert.Equal(t, []string{"mic_off", "leave"}, sess.order)
	assert.True(t, navigated)
	assert.Equal(t, models.CallingStateLeft, m.State())
}

func TestLeaveDisablesBothTracksBeforeTeardown(t *testing.T) {
	sess := &fakeSession{tracks: []models.TrackKind{models.TrackCamera, models.TrackMicrophone}}
	m := newJoinedMachine(sess, nil)

	m.Leave()

	assert.Equal(t, []string{"camera_off", "mic_off", "leave"}, sess.order)
}

func TestLeaveWithNilSessionStillNavigates(t *testing.T) {
	navigated := false
	m := NewMeetingStateMachine(nil, false, func() { navigated = true }, zerolog.Nop())

	m.Leave()

	assert.True(t, navigated)
	assert.Equal(t, models.CallingStateLeft, m.State())
}

func TestLeaveSurvivesDeviceShutdownFailure(t *testing.T) {
	sess := &fakeSession{
		tracks:     []models.TrackKind{models.TrackCamera},
		disableErr: errors.New("hardware already released"),
	}
	navigated := false
	m := newJoinedMachine(sess, func() { navigated = true })

	m.Leave()

	assert.Equal(t, 1, sess.leaveCalls, "teardown proceeds despite shutdown failure")
	assert.True(t, navigated)
}

func TestLeftIsTerminal(t *testing.T) {
	sess := &fakeSession{tracks: []models.TrackKind{models.TrackMicrophone}}
	m := newJoinedMachine(sess, nil)

	m.Leave()
	m.Leave()
	m.MarkJoined()

	assert.Equal(t, 1, sess.leaveCalls)
	assert.Equal(t, models.CallingStateLeft, m.State())
	assert.ErrorIs(t, m.SetLayout(models.LayoutGrid), ErrNotJoined)
}

func TestPersonalRoomOnlySelfLeave(t *testing.T) {
	personal := NewMeetingStateMachine(&fakeSession{}, true, nil, zerolog.Nop())
	regular := NewMeetingStateMachine(&fakeSession{}, false, nil, zerolog.Nop())

	assert.False(t, personal.CanEndForAll())
	assert.True(t, regular.CanEndForAll())
}

func TestChatPanelVisibility(t *testing.T) {
	m := newJoinedMachine(&fakeSession{}, nil)
	require.NoError(t, m.ToggleChat())

	assert.True(t, m.ChatPanelVisible(true, "meeting-chat-abc123"))
	assert.False(t, m.ChatPanelVisible(false, "meeting-chat-abc123"), "chat client not ready")
	assert.False(t, m.ChatPanelVisible(true, ""), "channel unresolved")

	require.NoError(t, m.ToggleChat())
	assert.False(t, m.ChatPanelVisible(true, "meeting-chat-abc123"), "panel hidden")
}

func TestSubscribePublishesViewChanges(t *testing.T) {
	m := NewMeetingStateMachine(&fakeSession{}, false, nil, zerolog.Nop())
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.MarkJoined()

	view := <-ch
	assert.True(t, view.Joined)

	require.NoError(t, m.SetLayout(models.LayoutSpeakerRight))
	view = <-ch
	assert.Equal(t, models.LayoutSpeakerRight, view.Layout)
}

func TestSubscribeClosedAfterLeave(t *testing.T) {
	m := newJoinedMachine(&fakeSession{}, nil)
	ch, _ := m.Subscribe()

	m.Leave()

	for {
		if _, ok := <-ch; !ok {
			return
		}
	}
}

func TestViewPublishConcurrentWithSubscriberChurn(t *testing.T) {
	m := newJoinedMachine(&fakeSession{}, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		layouts := []models.LayoutMode{models.LayoutGrid, models.LayoutSpeakerLeft, models.LayoutSpeakerRight}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
				_ = m.SetLayout(layouts[i%len(layouts)])
			}
		}
	}()

	// Unsubscribing while view changes publish must never land a send on
	// a closed channel.
	for i := 0; i < 500; i++ {
		ch, unsubscribe := m.Subscribe()
		select {
		case <-ch:
		default:
		}
		unsubscribe()
	}

	close(done)
	wg.Wait()
	m.Leave()
}
