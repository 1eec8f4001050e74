package usecase

import (
	"context"
	"time"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/internal/infrastructure/ratelimit"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	rateLimiter      *ratelimit.RateLimiter
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		rateLimiter:      rateLimiter,
	}
}

// ConversationResponse is a conversation with participants and last message resolved for display.
type ConversationResponse struct {
	ID           string               `json:"id"`
	Participants []entity.Participant `json:"participants"`
	LastMessage  *entity.Message      `json:"last_message"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func (uc *ConversationUseCase) CreateOrGetConversation(ctx context.Context, requesterID, counterpartID string) (*entity.Conversation, error) {
	if requesterID == counterpartID {
		logger.Warn("CreateOrGetConversation Error: user %s attempted to converse with themselves", requesterID)
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	_, lookupErr := uc.conversationRepo.FindByPair(ctx, requesterID, counterpartID)
	firstContact := errors.IsNotFound(lookupErr)
	if lookupErr != nil && !firstContact {
		logger.Error("CreateOrGetConversation Error: pair lookup failed: %v", lookupErr)
		return nil, lookupErr
	}

	// Only a first contact spends a token.
	if firstContact && uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(requesterID, ratelimit.ActionCreateConversation); !allowed {
			logger.Warn("CreateOrGetConversation Rate Limited: user %s must wait %v", requesterID, wait)
			return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation", wait)
		}
	}

	if _, err := uc.userRepo.GetByID(ctx, counterpartID); err != nil {
		logger.Warn("CreateOrGetConversation Error: recipient %s lookup failed: %v", counterpartID, err)
		if errors.IsNotFound(err) {
			return nil, errors.NotFound("Recipient", err)
		}
		return nil, err
	}

	conversation, created, err := uc.conversationRepo.CreateOrGet(ctx, requesterID, counterpartID)
	if err != nil {
		logger.Error("CreateOrGetConversation Error: %v", err)
		return nil, err
	}

	if created {
		logger.Info("Conversation %s created between %s and %s", conversation.ID, requesterID, counterpartID)
	}
	return conversation, nil
}

func (uc *ConversationUseCase) GetConversationsForUser(ctx context.Context, userID string) ([]*ConversationResponse, error) {
	conversations, err := uc.conversationRepo.ListByUserID(ctx, userID)
	if err != nil {
		logger.Error("GetConversationsForUser Error: %v", err)
		return nil, err
	}

	var ids []string
	for _, c := range conversations {
		ids = append(ids, c.Participants...)
	}
	users, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		logger.Error("GetConversationsForUser Error: failed to resolve participants: %v", err)
		return nil, err
	}

	result := make([]*ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		result = append(result, uc.resolve(ctx, c, users))
	}
	return result, nil
}

func (uc *ConversationUseCase) GetConversationByID(ctx context.Context, conversationID, requesterID string) (*ConversationResponse, error) {
	conversation, err := uc.authorizedConversation(ctx, conversationID, requesterID)
	if err != nil {
		return nil, err
	}

	users, err := uc.userRepo.GetByIDs(ctx, conversation.Participants)
	if err != nil {
		logger.Error("GetConversationByID Error: failed to resolve participants: %v", err)
		return nil, err
	}
	return uc.resolve(ctx, conversation, users), nil
}

// AuthorizeJoin lets only participants subscribe to a conversation's realtime channel.
func (uc *ConversationUseCase) AuthorizeJoin(ctx context.Context, userID, conversationID string) error {
	_, err := uc.authorizedConversation(ctx, conversationID, userID)
	return err
}

func (uc *ConversationUseCase) authorizedConversation(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conversation, nil
}

// resolve never fails: unknown participants keep only their id and a
// missing last message is reported as nil.
func (uc *ConversationUseCase) resolve(ctx context.Context, c *entity.Conversation, users map[string]*entity.User) *ConversationResponse {
	resp := &ConversationResponse{
		ID:           c.ID,
		Participants: make([]entity.Participant, 0, len(c.Participants)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	for _, id := range c.Participants {
		if user, ok := users[id]; ok {
			resp.Participants = append(resp.Participants, user.Participant())
		} else {
			resp.Participants = append(resp.Participants, entity.Participant{ID: id})
		}
	}

	if c.LastMessageID != "" {
		message, err := uc.conversationRepo.GetMessageByID(ctx, c.LastMessageID)
		if err != nil {
			logger.Warn("Conversation %s: failed to resolve last message %s: %v", c.ID, c.LastMessageID, err)
		} else {
			resp.LastMessage = message
		}
	}
	return resp
}
