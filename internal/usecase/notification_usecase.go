package usecase

import (
	"context"
	"strings"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	ws "vetclinic/internal/infrastructure/websocket"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	broadcaster      Broadcaster
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	broadcaster Broadcaster,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		broadcaster:      broadcaster,
	}
}

type CreateNotificationInput struct {
	Recipient string
	SenderID  string
	Title     string
	Message   string
	Type      string
	EntityID  string
}

// CreateAndEmitNotification stores the notification and pushes it to the
// recipient's channel. Input missing a recipient, title or message is logged
// and skipped: it returns nil, nil.
func (uc *NotificationUseCase) CreateAndEmitNotification(ctx context.Context, input CreateNotificationInput) (*entity.Notification, error) {
	input.Recipient = strings.TrimSpace(input.Recipient)
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)

	if input.Recipient == "" || input.Title == "" || input.Message == "" {
		logger.Warn("CreateAndEmitNotification: skipped, missing recipient, title or message (type=%s)", input.Type)
		return nil, nil
	}

	if input.Type == "" {
		input.Type = entity.NotificationGeneric
	}
	if !entity.IsValidNotificationType(input.Type) {
		return nil, errors.BadRequest("Unsupported notification type", nil)
	}

	notification := &entity.Notification{
		Recipient: input.Recipient,
		SenderID:  input.SenderID,
		Title:     input.Title,
		Message:   input.Message,
		Type:      input.Type,
		EntityID:  input.EntityID,
	}
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("CreateAndEmitNotification Error: %v", err)
		return nil, err
	}

	if uc.broadcaster != nil {
		if err := uc.broadcaster.Publish(ctx, notification.Recipient, ws.EventNewNotification, notification); err != nil {
			logger.Warn("CreateAndEmitNotification: failed to publish to %s: %v", notification.Recipient, err)
		}
	}
	return notification, nil
}

// SendStaffNotification lets vets and admins notify a known user directly.
func (uc *NotificationUseCase) SendStaffNotification(ctx context.Context, senderID string, input CreateNotificationInput) (*entity.Notification, error) {
	if _, err := uc.userRepo.GetByID(ctx, input.Recipient); err != nil {
		logger.Warn("SendStaffNotification Error: recipient %s: %v", input.Recipient, err)
		if errors.IsNotFound(err) {
			return nil, errors.NotFound("Recipient", err)
		}
		return nil, err
	}
	if input.Type == entity.NotificationNewMessage {
		return nil, errors.BadRequest("new_message notifications are sent by the messaging service", nil)
	}

	input.SenderID = senderID
	notification, err := uc.CreateAndEmitNotification(ctx, input)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, errors.BadRequest("Recipient, title and message are required", nil)
	}
	return notification, nil
}

func (uc *NotificationUseCase) GetMyNotifications(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	notifications, total, err := uc.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
	if err != nil {
		logger.Error("GetMyNotifications Error: %v", err)
		return nil, 0, err
	}
	return notifications, total, nil
}

// GetNotificationsByUser lets admins read anyone's notifications; other callers only their own.
func (uc *NotificationUseCase) GetNotificationsByUser(ctx context.Context, requesterID, requesterRole, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	if requesterRole != entity.RoleAdmin && requesterID != userID {
		logger.Warn("GetNotificationsByUser Error: %s attempted to read notifications of %s", requesterID, userID)
		return nil, 0, errors.Forbidden("You can only view your own notifications", nil)
	}
	return uc.GetMyNotifications(ctx, userID, limit, offset)
}

func (uc *NotificationUseCase) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		logger.Error("CountUnread Error: %v", err)
		return 0, err
	}
	return count, nil
}

func (uc *NotificationUseCase) MarkAsRead(ctx context.Context, notificationID, userID string) (*entity.Notification, error) {
	notification, err := uc.ownedNotification(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if notification.IsRead {
		return notification, nil
	}

	if err := uc.notificationRepo.MarkRead(ctx, notification.ID); err != nil {
		logger.Error("MarkAsRead Error: %v", err)
		return nil, err
	}
	notification.IsRead = true
	return notification, nil
}

func (uc *NotificationUseCase) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	count, err := uc.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		logger.Error("MarkAllAsRead Error: %v", err)
		return 0, err
	}
	return count, nil
}

func (uc *NotificationUseCase) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	notification, err := uc.ownedNotification(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if err := uc.notificationRepo.Delete(ctx, notification.ID); err != nil {
		logger.Error("DeleteNotification Error: %v", err)
		return err
	}
	return nil
}

func (uc *NotificationUseCase) DeleteAllMyNotifications(ctx context.Context, userID string) (int, error) {
	count, err := uc.notificationRepo.DeleteAllByRecipient(ctx, userID)
	if err != nil {
		logger.Error("DeleteAllMyNotifications Error: %v", err)
		return 0, err
	}
	return count, nil
}

// ownedNotification reports another user's notification as not found.
func (uc *NotificationUseCase) ownedNotification(ctx context.Context, notificationID, userID string) (*entity.Notification, error) {
	notification, err := uc.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.Recipient != userID {
		return nil, errors.NotFound("Notification", nil)
	}
	return notification, nil
}
