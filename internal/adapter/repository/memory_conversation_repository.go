package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/pkg/errors"
)

// memoryConversationRepository is the STORE_DRIVER=memory backend. One mutex
// guards conversations and messages, so the pair lookup and message append
// have the same atomicity as the Firestore transactions.
type memoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	byPair        map[string]string
	messages      map[string]*entity.Message
	byConv        map[string][]string

	now func() time.Time
}

func NewMemoryConversationRepository() repository.ConversationRepository {
	return &memoryConversationRepository{
		conversations: make(map[string]*entity.Conversation),
		byPair:        make(map[string]string),
		messages:      make(map[string]*entity.Message),
		byConv:        make(map[string][]string),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}

func cloneMessage(m *entity.Message) *entity.Message {
	cp := *m
	cp.ReadBy = append([]string{}, m.ReadBy...)
	return &cp
}

func (r *memoryConversationRepository) CreateOrGet(ctx context.Context, requesterID, counterpartID string) (*entity.Conversation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, errors.Internal("Failed to create or get conversation", err)
	}

	pairKey := entity.PairKey(requesterID, counterpartID)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byPair[pairKey]; ok {
		conversation := r.conversations[id]
		conversation.UpdatedAt = now
		return cloneConversation(conversation), false, nil
	}

	conversation := &entity.Conversation{
		ID:           newID(),
		Participants: []string{requesterID, counterpartID},
		PairKey:      pairKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.conversations[conversation.ID] = conversation
	r.byPair[pairKey] = conversation.ID

	return cloneConversation(conversation), true, nil
}

func (r *memoryConversationRepository) FindByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[entity.PairKey(userA, userB)]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(r.conversations[id]), nil
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conversation), nil
}

func (r *memoryConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conversations []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			conversations = append(conversations, cloneConversation(c))
		}
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		if conversations[i].UpdatedAt.Equal(conversations[j].UpdatedAt) {
			return conversations[i].ID < conversations[j].ID
		}
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func (r *memoryConversationRepository) AppendMessage(ctx context.Context, message *entity.Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Internal("Failed to create message", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[message.ConversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = r.now()
	}
	// A wall clock stepping backwards must not reorder the thread.
	if last, ok := r.messages[conversation.LastMessageID]; ok && message.CreatedAt.Before(last.CreatedAt) {
		message.CreatedAt = last.CreatedAt
	}
	if message.ID == "" {
		message.ID = newMessageID(message.CreatedAt)
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}

	r.messages[message.ID] = cloneMessage(message)
	r.byConv[message.ConversationID] = append(r.byConv[message.ConversationID], message.ID)

	conversation.LastMessageID = message.ID
	conversation.UpdatedAt = message.CreatedAt
	return nil
}

func (r *memoryConversationRepository) GetMessageByID(ctx context.Context, messageID string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.messages[messageID]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return cloneMessage(message), nil
}

func (r *memoryConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byConv[conversationID]
	messages := make([]*entity.Message, 0, len(ids))
	for _, id := range ids {
		messages = append(messages, cloneMessage(r.messages[id]))
	}

	// ties keep append order
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *memoryConversationRepository) MarkMessagesRead(ctx context.Context, messageIDs []string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range messageIDs {
		if _, ok := r.messages[id]; !ok {
			return errors.NotFound("Message", nil)
		}
	}

	for _, id := range messageIDs {
		message := r.messages[id]
		if !message.IsReadBy(userID) {
			message.ReadBy = append(message.ReadBy, userID)
		}
	}
	return nil
}
