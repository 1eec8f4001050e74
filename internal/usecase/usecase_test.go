package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	repo "vetclinic/internal/adapter/repository"
	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
)

type publishedEvent struct {
	channel string
	event   string
	payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (b *fakeBroadcaster) Publish(ctx context.Context, channel, event string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{channel: channel, event: event, payload: payload})
	return b.err
}

func (b *fakeBroadcaster) on(channel, event string) []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []publishedEvent
	for _, e := range b.events {
		if e.channel == channel && e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	users         repository.UserRepository
	conversations repository.ConversationRepository
	notifications repository.NotificationRepository
	broadcaster   *fakeBroadcaster

	conversationUC *ConversationUseCase
	messageUC      *MessageUseCase
	notificationUC *NotificationUseCase
	userUC         *UserUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:         repo.NewMemoryUserRepository(),
		conversations: repo.NewMemoryConversationRepository(),
		notifications: repo.NewMemoryNotificationRepository(),
		broadcaster:   &fakeBroadcaster{},
	}
	f.notificationUC = NewNotificationUseCase(f.notifications, f.users, f.broadcaster)
	f.conversationUC = NewConversationUseCase(f.conversations, f.users, nil)
	f.messageUC = NewMessageUseCase(f.conversations, f.users, f.notificationUC, f.broadcaster, nil)
	f.userUC = NewUserUseCase(f.users, nil)

	for _, u := range []*entity.User{
		{ID: "owner-a", Username: "alice", Role: entity.RolePetOwner},
		{ID: "vet-b", Username: "dr-bob", Role: entity.RoleVet},
		{ID: "owner-c", Username: "carol", Role: entity.RolePetOwner},
		{ID: "admin-d", Username: "dana", Role: entity.RoleAdmin},
	} {
		require.NoError(t, f.users.Upsert(context.Background(), u))
	}
	return f
}

func (f *fixture) conversation(t *testing.T, a, b string) *entity.Conversation {
	t.Helper()
	c, err := f.conversationUC.CreateOrGetConversation(context.Background(), a, b)
	require.NoError(t, err)
	return c
}

var errBroadcast = errors.New("broadcast down")
