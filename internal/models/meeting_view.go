package models

type CallingState string

const (
	CallingStateConnecting CallingState = "connecting"
	CallingStateJoined     CallingState = "joined"
	CallingStateLeft       CallingState = "left"
)

type LayoutMode string

const (
	LayoutGrid         LayoutMode = "grid"
	LayoutSpeakerLeft  LayoutMode = "speaker-left"
	LayoutSpeakerRight LayoutMode = "speaker-right"
)

// ValidLayout reports whether mode is one of the supported layouts.
func ValidLayout(mode LayoutMode) bool {
	switch mode {
	case LayoutGrid, LayoutSpeakerLeft, LayoutSpeakerRight:
		return true
	}
	return false
}

type TrackKind string

const (
	TrackCamera     TrackKind = "camera"
	TrackMicrophone TrackKind = "microphone"
)

// SessionViewState is the local view state of one participant in an
// active meeting. It is owned by the in-meeting state machine and only
// mutated through it.
type SessionViewState struct {
	Layout           LayoutMode `json:"layout"`
	ShowParticipants bool       `json:"show_participants"`
	ShowChat         bool       `json:"show_chat"`
	Joined           bool       `json:"joined"`
}
