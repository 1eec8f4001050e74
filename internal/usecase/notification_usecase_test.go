package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/internal/domain/entity"
	ws "vetclinic/internal/infrastructure/websocket"
	"vetclinic/pkg/errors"
)

func TestCreateAndEmitNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.notificationUC.CreateAndEmitNotification(ctx, CreateNotificationInput{
		Recipient: "owner-a",
		SenderID:  "vet-b",
		Title:     "Appointment approved",
		Message:   "See you Monday at 10:00",
		Type:      entity.NotificationAppointmentApproved,
		EntityID:  "appt-1",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.False(t, n.IsRead)
	assert.NotEmpty(t, n.ID)

	events := f.broadcaster.on("owner-a", ws.EventNewNotification)
	require.Len(t, events, 1)
	assert.Equal(t, n.ID, events[0].payload.(*entity.Notification).ID)

	list, total, err := f.notificationUC.GetMyNotifications(ctx, "owner-a", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Appointment approved", list[0].Title)
}

func TestCreateAndEmitNotificationSkipsIncompleteInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []CreateNotificationInput{
		{Title: "t", Message: "m"},
		{Recipient: "owner-a", Message: "m"},
		{Recipient: "owner-a", Title: "t", Message: "  "},
	} {
		n, err := f.notificationUC.CreateAndEmitNotification(ctx, in)
		assert.NoError(t, err)
		assert.Nil(t, n)
	}

	count, err := f.notificationUC.CountUnread(ctx, "owner-a")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.broadcaster.on("owner-a", ws.EventNewNotification))
}

func TestCreateAndEmitNotificationDefaultsToGeneric(t *testing.T) {
	f := newFixture(t)

	n, err := f.notificationUC.CreateAndEmitNotification(context.Background(), CreateNotificationInput{Recipient: "owner-a", Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationGeneric, n.Type)

	_, err = f.notificationUC.CreateAndEmitNotification(context.Background(), CreateNotificationInput{Recipient: "owner-a", Title: "t", Message: "m", Type: "party"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestMarkAsReadHidesOtherUsersNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n, err := f.notificationUC.CreateAndEmitNotification(ctx, CreateNotificationInput{Recipient: "owner-a", Title: "t", Message: "m"})
	require.NoError(t, err)

	_, err = f.notificationUC.MarkAsRead(ctx, n.ID, "owner-c")
	assert.True(t, errors.IsNotFound(err))

	_, err = f.notificationUC.MarkAsRead(ctx, "missing", "owner-a")
	assert.True(t, errors.IsNotFound(err))

	read, err := f.notificationUC.MarkAsRead(ctx, n.ID, "owner-a")
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := f.notificationUC.CountUnread(ctx, "owner-a")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetNotificationsByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.notificationUC.CreateAndEmitNotification(ctx, CreateNotificationInput{Recipient: "owner-a", Title: "t", Message: "m"})
	require.NoError(t, err)

	_, _, err = f.notificationUC.GetNotificationsByUser(ctx, "owner-c", entity.RolePetOwner, "owner-a", 10, 0)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	list, total, err := f.notificationUC.GetNotificationsByUser(ctx, "admin-d", entity.RoleAdmin, "owner-a", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, _, err = f.notificationUC.GetNotificationsByUser(ctx, "owner-a", entity.RolePetOwner, "owner-a", 10, 0)
	assert.NoError(t, err)
}

func TestDeleteNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		n, err := f.notificationUC.CreateAndEmitNotification(ctx, CreateNotificationInput{Recipient: "owner-a", Title: "t", Message: "m"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	_, err := f.notificationUC.CreateAndEmitNotification(ctx, CreateNotificationInput{Recipient: "owner-c", Title: "t", Message: "m"})
	require.NoError(t, err)

	assert.True(t, errors.IsNotFound(f.notificationUC.DeleteNotification(ctx, ids[0], "owner-c")))
	require.NoError(t, f.notificationUC.DeleteNotification(ctx, ids[0], "owner-a"))

	marked, err := f.notificationUC.MarkAllAsRead(ctx, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	deleted, err := f.notificationUC.DeleteAllMyNotifications(ctx, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := f.notificationUC.CountUnread(ctx, "owner-c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSendStaffNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.notificationUC.SendStaffNotification(ctx, "vet-b", CreateNotificationInput{
		Recipient: "owner-a",
		Title:     "Vaccination due",
		Message:   "Rex is due for his booster",
	})
	require.NoError(t, err)
	assert.Equal(t, "vet-b", n.SenderID)

	_, err = f.notificationUC.SendStaffNotification(ctx, "vet-b", CreateNotificationInput{Recipient: "ghost", Title: "t", Message: "m"})
	assert.True(t, errors.IsNotFound(err))

	_, err = f.notificationUC.SendStaffNotification(ctx, "vet-b", CreateNotificationInput{Recipient: "owner-a", Title: "t"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}
