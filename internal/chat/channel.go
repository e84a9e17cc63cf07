package chat

// ChannelType is the fixed type tag for meeting chat channels.
const ChannelType = "messaging"

const channelIDPrefix = "meeting-chat-"

// DeriveChannelID maps a call identifier to its chat channel identifier.
// The mapping is pure so the channel id can always be recomputed without
// a directory lookup.
func DeriveChannelID(callID string) string {
	return channelIDPrefix + callID
}

// ChannelDisplayName returns the display name for a meeting chat channel.
func ChannelDisplayName(callID string) string {
	return "Meeting Chat " + callID
}

// ChannelRef identifies the chat channel attached to a call. Exactly one
// channel exists per call with chat enabled.
type ChannelRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// NewChannelRef derives the channel reference for a call identifier.
func NewChannelRef(callID string) ChannelRef {
	return ChannelRef{
		ID:   DeriveChannelID(callID),
		Type: ChannelType,
		Name: ChannelDisplayName(callID),
	}
}
