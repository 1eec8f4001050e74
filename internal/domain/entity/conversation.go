package entity

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a two-party messaging thread. Participants are stored in
// creation order but compared as an unordered pair through PairKey.
type Conversation struct {
	ID            string    `json:"id" firestore:"id"`
	Participants  []string  `json:"participants" firestore:"participants"`
	PairKey       string    `json:"-" firestore:"pairKey"`
	LastMessageID string    `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

// PairKey normalizes two participant ids into an order-independent key.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the participant that is not userID.
func (c *Conversation) Counterpart(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
