package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/internal/infrastructure/ratelimit"
	ws "vetclinic/internal/infrastructure/websocket"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

const (
	maxMessageLength       = 4000
	notificationPreviewLen = 80
)

type MessageUseCase struct {
	conversationRepo    repository.ConversationRepository
	userRepo            repository.UserRepository
	notificationUseCase *NotificationUseCase
	broadcaster         Broadcaster
	rateLimiter         *ratelimit.RateLimiter
}

func NewMessageUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	notificationUseCase *NotificationUseCase,
	broadcaster Broadcaster,
	rateLimiter *ratelimit.RateLimiter,
) *MessageUseCase {
	return &MessageUseCase{
		conversationRepo:    conversationRepo,
		userRepo:            userRepo,
		notificationUseCase: notificationUseCase,
		broadcaster:         broadcaster,
		rateLimiter:         rateLimiter,
	}
}

type SendMessageInput struct {
	ConversationID string
	Content        string
	MessageType    string
	FileURL        string
}

type MessageResponse struct {
	*entity.Message
	Sender entity.Participant `json:"sender"`
}

type MessagesReadEvent struct {
	ConversationID string   `json:"conversation_id"`
	ReaderID       string   `json:"reader_id"`
	MessageIDs     []string `json:"message_ids"`
}

type MessageReadEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	ReaderID       string `json:"reader_id"`
}

func validateMessage(input *SendMessageInput) error {
	if input.MessageType == "" {
		input.MessageType = entity.MessageTypeText
	}
	if !entity.IsValidMessageType(input.MessageType) {
		return errors.BadRequest(fmt.Sprintf("Unsupported message type %q", input.MessageType), nil)
	}

	input.Content = strings.TrimSpace(input.Content)
	input.FileURL = strings.TrimSpace(input.FileURL)

	if utf8.RuneCountInString(input.Content) > maxMessageLength {
		return errors.BadRequest(fmt.Sprintf("Message content exceeds %d characters", maxMessageLength), nil)
	}

	if input.FileURL != "" && !validAttachmentURL(input.FileURL) {
		return errors.BadRequest("file_url must be an http(s) URL or an uploads path", nil)
	}

	switch input.MessageType {
	case entity.MessageTypeText:
		if input.Content == "" && input.FileURL == "" {
			return errors.BadRequest("Message content is required", nil)
		}
	default:
		if input.FileURL == "" {
			return errors.BadRequest("file_url is required for image and file messages", nil)
		}
	}
	return nil
}

// validAttachmentURL accepts absolute http(s) URLs from cloud storage and
// server-relative paths handed out by local storage.
func validAttachmentURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "":
		return u.Host == "" && strings.HasPrefix(u.Path, "/")
	}
	return false
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*MessageResponse, error) {
	if err := validateMessage(&input); err != nil {
		logger.Warn("SendMessage Error: invalid input from %s: %v", senderID, err)
		return nil, err
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendMessage); !allowed {
			logger.Warn("SendMessage Rate Limited: user %s must wait %v", senderID, wait)
			return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down", wait)
		}
	}

	conversation, err := uc.participantConversation(ctx, input.ConversationID, senderID)
	if err != nil {
		logger.Warn("SendMessage Error: %v", err)
		return nil, err
	}

	message := &entity.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Content:        input.Content,
		MessageType:    input.MessageType,
		FileURL:        input.FileURL,
		ReadBy:         []string{},
	}
	if err := uc.conversationRepo.AppendMessage(ctx, message); err != nil {
		logger.Error("SendMessage Error: failed to persist message in %s: %v", conversation.ID, err)
		return nil, err
	}

	resp := &MessageResponse{
		Message: message,
		Sender:  uc.participant(ctx, senderID),
	}

	uc.publish(ctx, conversation.ID, ws.EventNewMessage, resp)
	uc.notifyCounterpart(ctx, conversation, resp)

	return resp, nil
}

// GetMessagesInConversation returns the conversation oldest first as it was
// before this read, then records the requester as having read everything
// addressed to them.
func (uc *MessageUseCase) GetMessagesInConversation(ctx context.Context, conversationID, requesterID string) ([]*MessageResponse, error) {
	conversation, err := uc.participantConversation(ctx, conversationID, requesterID)
	if err != nil {
		logger.Warn("GetMessagesInConversation Error: %v", err)
		return nil, err
	}

	messages, err := uc.conversationRepo.ListMessages(ctx, conversation.ID)
	if err != nil {
		logger.Error("GetMessagesInConversation Error: %v", err)
		return nil, err
	}

	users, err := uc.userRepo.GetByIDs(ctx, conversation.Participants)
	if err != nil {
		logger.Error("GetMessagesInConversation Error: failed to resolve senders: %v", err)
		return nil, err
	}

	var unread []string
	result := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		if m.NeedsReadBy(requesterID) {
			unread = append(unread, m.ID)
		}
		result = append(result, &MessageResponse{Message: m, Sender: participantFrom(users, m.SenderID)})
	}

	if len(unread) > 0 {
		if err := uc.conversationRepo.MarkMessagesRead(ctx, unread, requesterID); err != nil {
			logger.Error("GetMessagesInConversation Error: failed to mark %d messages read: %v", len(unread), err)
			return nil, err
		}
		uc.publish(ctx, conversation.ID, ws.EventMessagesRead, MessagesReadEvent{
			ConversationID: conversation.ID,
			ReaderID:       requesterID,
			MessageIDs:     unread,
		})
	}

	return result, nil
}

func (uc *MessageUseCase) MarkMessageAsRead(ctx context.Context, messageID, userID string) (*entity.Message, error) {
	message, err := uc.conversationRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		logger.Warn("MarkMessageAsRead Error: %v", err)
		return nil, err
	}

	if _, err := uc.participantConversation(ctx, message.ConversationID, userID); err != nil {
		logger.Warn("MarkMessageAsRead Error: %v", err)
		return nil, err
	}

	if message.IsReadBy(userID) {
		return message, nil
	}

	if err := uc.conversationRepo.MarkMessagesRead(ctx, []string{message.ID}, userID); err != nil {
		logger.Error("MarkMessageAsRead Error: %v", err)
		return nil, err
	}
	message.ReadBy = append(message.ReadBy, userID)

	uc.publish(ctx, message.ConversationID, ws.EventMessageRead, MessageReadEvent{
		ConversationID: message.ConversationID,
		MessageID:      message.ID,
		ReaderID:       userID,
	})
	return message, nil
}

// UnreadCount counts messages addressed to userID across all their conversations that they have not read.
func (uc *MessageUseCase) UnreadCount(ctx context.Context, userID string) (int, error) {
	conversations, err := uc.conversationRepo.ListByUserID(ctx, userID)
	if err != nil {
		logger.Error("UnreadCount Error: %v", err)
		return 0, err
	}

	count := 0
	for _, c := range conversations {
		if c.LastMessageID == "" {
			continue
		}
		messages, err := uc.conversationRepo.ListMessages(ctx, c.ID)
		if err != nil {
			logger.Error("UnreadCount Error: conversation %s: %v", c.ID, err)
			return 0, err
		}
		for _, m := range messages {
			if m.NeedsReadBy(userID) {
				count++
			}
		}
	}
	return count, nil
}

func (uc *MessageUseCase) participantConversation(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conversation, nil
}

func (uc *MessageUseCase) participant(ctx context.Context, userID string) entity.Participant {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("Failed to resolve user %s: %v", userID, err)
		return entity.Participant{ID: userID}
	}
	return user.Participant()
}

func participantFrom(users map[string]*entity.User, id string) entity.Participant {
	if user, ok := users[id]; ok {
		return user.Participant()
	}
	return entity.Participant{ID: id}
}

func (uc *MessageUseCase) publish(ctx context.Context, channel, event string, payload interface{}) {
	if uc.broadcaster == nil {
		return
	}
	if err := uc.broadcaster.Publish(ctx, channel, event, payload); err != nil {
		logger.Warn("Failed to publish %q on %s: %v", event, channel, err)
	}
}

func (uc *MessageUseCase) notifyCounterpart(ctx context.Context, conversation *entity.Conversation, msg *MessageResponse) {
	if uc.notificationUseCase == nil {
		return
	}

	recipient := conversation.Counterpart(msg.SenderID)
	if recipient == "" {
		return
	}

	sender := msg.Sender.Username
	if sender == "" {
		sender = "Someone"
	}

	preview := msg.Content
	switch {
	case msg.MessageType == entity.MessageTypeImage:
		preview = "Sent an image"
	case msg.MessageType == entity.MessageTypeFile:
		preview = "Sent a file"
	case utf8.RuneCountInString(preview) > notificationPreviewLen:
		preview = string([]rune(preview)[:notificationPreviewLen]) + "..."
	}

	_, err := uc.notificationUseCase.CreateAndEmitNotification(ctx, CreateNotificationInput{
		Recipient: recipient,
		SenderID:  msg.SenderID,
		Title:     fmt.Sprintf("New message from %s", sender),
		Message:   preview,
		Type:      entity.NotificationNewMessage,
		EntityID:  conversation.ID,
	})
	if err != nil {
		logger.Warn("SendMessage: failed to notify %s: %v", recipient, err)
	}
}
