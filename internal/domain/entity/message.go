package entity

import "time"

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

func IsValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Content        string    `json:"content,omitempty" firestore:"content"`
	MessageType    string    `json:"message_type" firestore:"messageType"`
	FileURL        string    `json:"file_url,omitempty" firestore:"fileUrl,omitempty"`
	ReadBy         []string  `json:"read_by" firestore:"readBy"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

func (m *Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}

// NeedsReadBy reports whether userID is a recipient who has not acknowledged the message.
func (m *Message) NeedsReadBy(userID string) bool {
	return m.SenderID != userID && !m.IsReadBy(userID)
}
