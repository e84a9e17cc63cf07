package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveChannelID(t *testing.T) {
	assert.Equal(t, "meeting-chat-abc123", DeriveChannelID("abc123"))
}

func TestNewChannelRef(t *testing.T) {
	ref := NewChannelRef("abc123")

	assert.Equal(t, "meeting-chat-abc123", ref.ID)
	assert.Equal(t, "messaging", ref.Type)
	assert.Equal(t, "Meeting Chat abc123", ref.Name)
}

func TestChannelIDIsDeterministic(t *testing.T) {
	assert.Equal(t, NewChannelRef("xyz"), NewChannelRef("xyz"))
}
