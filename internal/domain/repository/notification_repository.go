package repository

import (
	"context"

	"vetclinic/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	// ListByRecipient returns notifications newest first along with the recipient's total.
	ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipient string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteAllByRecipient(ctx context.Context, recipient string) (int, error)
}
