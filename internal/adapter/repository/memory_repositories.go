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

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewMemoryUserRepository() repository.UserRepository {
	return &memoryUserRepository{users: make(map[string]*entity.User)}
}

func (r *memoryUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *user
	return &cp, nil
}

func (r *memoryUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make(map[string]*entity.User, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			cp := *user
			users[id] = &cp
		}
	}
	return users, nil
}

func (r *memoryUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*entity.Notification
}

func NewMemoryNotificationRepository() repository.NotificationRepository {
	return &memoryNotificationRepository{notifications: make(map[string]*entity.Notification)}
}

func (r *memoryNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = newID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *notification
	r.notifications[notification.ID] = &cp
	return nil
}

func (r *memoryNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	cp := *n
	return &cp, nil
}

// byRecipient returns the recipient's notifications newest first. Callers hold the lock.
func (r *memoryNotificationRepository) byRecipient(recipient string) []*entity.Notification {
	var out []*entity.Notification
	for _, n := range r.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memoryNotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.byRecipient(recipient)
	total := int64(len(all))

	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	page := make([]*entity.Notification, 0, end-start)
	for _, n := range all[start:end] {
		cp := *n
		page = append(page, &cp)
	}
	return page, total, nil
}

func (r *memoryNotificationRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.notifications {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memoryNotificationRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	n.IsRead = true
	return nil
}

func (r *memoryNotificationRepository) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.Recipient == recipient && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *memoryNotificationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notifications, id)
	return nil
}

func (r *memoryNotificationRepository) DeleteAllByRecipient(ctx context.Context, recipient string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, n := range r.notifications {
		if n.Recipient == recipient {
			delete(r.notifications, id)
			count++
		}
	}
	return count, nil
}

type memoryFileMetadataRepository struct {
	mu    sync.RWMutex
	files map[string]*entity.FileMetadata
}

func NewMemoryFileMetadataRepository() repository.FileMetadataRepository {
	return &memoryFileMetadataRepository{files: make(map[string]*entity.FileMetadata)}
}

func (r *memoryFileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	if metadata.ID == "" {
		metadata.ID = newID()
	}
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *metadata
	r.files[metadata.ID] = &cp
	return nil
}

func (r *memoryFileMetadataRepository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return nil, errors.NotFound("File metadata", nil)
	}
	cp := *f
	return &cp, nil
}
