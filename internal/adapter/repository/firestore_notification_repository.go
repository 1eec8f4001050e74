package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

const notificationsCollection = "notifications"

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(notificationsCollection)
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = newID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection().Doc(notification.ID).Create(ctx, notification)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Notification", err)
		}
		return nil, errors.Internal("Failed to get notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return nil, errors.Internal("Failed to parse notification data", err)
	}
	return &notification, nil
}

func (r *firestoreNotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*entity.Notification, int64, error) {
	base := r.collection().Where("recipient", "==", recipient)

	total, err := r.count(ctx, base)
	if err != nil {
		return nil, 0, err
	}

	query := base.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing notifications for %s: %v", recipient, err)
		return nil, 0, errors.Internal("Failed to list notifications", err)
	}

	notifications := make([]*entity.Notification, 0, len(docs))
	for _, doc := range docs {
		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			logger.Warn("Skipping malformed notification %s: %v", doc.Ref.ID, err)
			continue
		}
		notifications = append(notifications, &notification)
	}

	return notifications, total, nil
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return r.count(ctx, r.collection().Where("recipient", "==", recipient).Where("isRead", "==", false))
}

func (r *firestoreNotificationRepository) count(ctx context.Context, query firestore.Query) (int64, error) {
	result, err := query.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, errors.Internal("Failed to count notifications", err)
	}

	value, ok := result["total"].(*firestorepb.Value)
	if !ok {
		return 0, errors.Internal("Unexpected count aggregation result", nil)
	}
	return value.GetIntegerValue(), nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Update(ctx, []firestore.Update{{Path: "isRead", Value: true}})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to mark notification as read", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	query := r.collection().Where("recipient", "==", recipient).Where("isRead", "==", false)
	return r.bulkApply(ctx, query, func(bw *firestore.BulkWriter, ref *firestore.DocumentRef) (*firestore.BulkWriterJob, error) {
		return bw.Update(ref, []firestore.Update{{Path: "isRead", Value: true}})
	})
}

func (r *firestoreNotificationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection().Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete notification", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) DeleteAllByRecipient(ctx context.Context, recipient string) (int, error) {
	query := r.collection().Where("recipient", "==", recipient)
	return r.bulkApply(ctx, query, func(bw *firestore.BulkWriter, ref *firestore.DocumentRef) (*firestore.BulkWriterJob, error) {
		return bw.Delete(ref)
	})
}

// bulkApply runs op for every document matched by query and returns how many succeeded.
func (r *firestoreNotificationRepository) bulkApply(
	ctx context.Context,
	query firestore.Query,
	op func(*firestore.BulkWriter, *firestore.DocumentRef) (*firestore.BulkWriterJob, error),
) (int, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to iterate notifications", err)
		}

		job, err := op(bw, doc.Ref)
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue notification write", err)
		}
		jobs = append(jobs, job)

		if len(jobs)%maxBulkWrites == 0 {
			bw.Flush()
		}
	}
	bw.End()

	done := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Warn("Notification bulk write failed: %v", err)
			continue
		}
		done++
	}
	return done, nil
}
