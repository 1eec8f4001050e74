package repository

import (
	"context"

	"vetclinic/internal/domain/entity"
)

// ConversationRepository stores conversations and the messages that belong to them.
type ConversationRepository interface {
	// CreateOrGet returns the conversation for the unordered pair {requesterID, counterpartID},
	// touching updatedAt when it exists and creating it otherwise. At most one conversation
	// exists per pair; created reports whether this call inserted it.
	CreateOrGet(ctx context.Context, requesterID, counterpartID string) (conversation *entity.Conversation, created bool, err error)
	// FindByPair returns the pair's conversation without touching it, or NotFound.
	FindByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// ListByUserID returns every conversation the user participates in, most recently updated first.
	ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error)

	// AppendMessage persists the message and points the owning conversation's
	// lastMessageId at it, bumping updatedAt, in one atomic write.
	AppendMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, messageID string) (*entity.Message, error)
	// ListMessages returns a conversation's messages oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	// MarkMessagesRead adds userID to readBy of every listed message. It never removes ids.
	MarkMessagesRead(ctx context.Context, messageIDs []string, userID string) error
}
