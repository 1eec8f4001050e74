package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/internal/domain/entity"
)

func TestNotificationListIsNewestFirstAndPaged(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &entity.Notification{
			Recipient: "owner",
			Title:     "t",
			Message:   "m",
			Type:      entity.NotificationGeneric,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.Notification{Recipient: "someone-else", Title: "t", Message: "m"}))

	page, total, err := repo.ListByRecipient(ctx, "owner", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, base.Add(3*time.Minute), page[0].CreatedAt)
	assert.Equal(t, base.Add(2*time.Minute), page[1].CreatedAt)
}

func TestNotificationReadAndDelete(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.Notification{Recipient: "owner", Title: "t", Message: "m"}))
	}

	unread, err := repo.CountUnread(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	n, err := repo.MarkAllRead(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	unread, err = repo.CountUnread(ctx, "owner")
	require.NoError(t, err)
	assert.Zero(t, unread)

	deleted, err := repo.DeleteAllByRecipient(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestUserGetByIDsSkipsUnknown(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &entity.User{ID: "u1", Username: "alice", Role: entity.RolePetOwner}))

	users, err := repo.GetByIDs(ctx, []string{"u1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "alice", users["u1"].Username)

	require.NoError(t, repo.UpdateRole(ctx, "u1", entity.RoleVet))
	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVet, u.Role)
}
