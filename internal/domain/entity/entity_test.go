package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.NotEqual(t, PairKey("alice", "bob"), PairKey("alice", "carol"))
}

func TestConversationParticipants(t *testing.T) {
	c := &Conversation{Participants: []string{"alice", "bob"}}
	assert.True(t, c.HasParticipant("bob"))
	assert.False(t, c.HasParticipant("carol"))
	assert.Equal(t, "bob", c.Counterpart("alice"))
	assert.Equal(t, "alice", c.Counterpart("bob"))
}

func TestMessageNeedsReadBy(t *testing.T) {
	m := &Message{SenderID: "alice", ReadBy: []string{}}
	assert.False(t, m.NeedsReadBy("alice"))
	assert.True(t, m.NeedsReadBy("bob"))

	m.ReadBy = append(m.ReadBy, "bob")
	assert.False(t, m.NeedsReadBy("bob"))
}

func TestTypeValidation(t *testing.T) {
	assert.True(t, IsValidMessageType(MessageTypeImage))
	assert.False(t, IsValidMessageType("offer"))
	assert.True(t, IsValidNotificationType(NotificationAppointmentRejected))
	assert.False(t, IsValidNotificationType("promo"))
	assert.True(t, IsValidRole(RoleVet))
	assert.False(t, IsValidRole("seller"))
}
