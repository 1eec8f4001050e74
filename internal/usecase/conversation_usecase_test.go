package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/internal/infrastructure/ratelimit"
	"vetclinic/pkg/errors"
)

func TestCreateOrGetConversationRejectsSelf(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversationUC.CreateOrGetConversation(context.Background(), "owner-a", "owner-a")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	list, err := f.conversations.ListByUserID(context.Background(), "owner-a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateOrGetConversationIgnoresOrder(t *testing.T) {
	f := newFixture(t)

	first := f.conversation(t, "owner-a", "vet-b")
	assert.Equal(t, []string{"owner-a", "vet-b"}, first.Participants)
	assert.Empty(t, first.LastMessageID)

	second := f.conversation(t, "vet-b", "owner-a")
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestCreateOrGetConversationConcurrentFirstContact(t *testing.T) {
	f := newFixture(t)

	const workers = 20
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "owner-a", "vet-b"
			if i%2 == 1 {
				a, b = b, a
			}
			c, err := f.conversationUC.CreateOrGetConversation(context.Background(), a, b)
			if assert.NoError(t, err) {
				ids <- c.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1)
}

func TestCreateOrGetConversationUnknownRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversationUC.CreateOrGetConversation(context.Background(), "owner-a", "ghost")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateOrGetConversationRateLimited(t *testing.T) {
	f := newFixture(t)
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		ratelimit.ActionCreateConversation: {Every: time.Hour, Burst: 1},
	})
	uc := NewConversationUseCase(f.conversations, f.users, limiter)

	_, err := uc.CreateOrGetConversation(context.Background(), "owner-a", "vet-b")
	require.NoError(t, err)

	_, err = uc.CreateOrGetConversation(context.Background(), "owner-a", "owner-c")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeTooManyRequests, appErr.Code)
	assert.True(t, appErr.RetryAfter > 0)
}

func TestCreateOrGetExistingConversationIgnoresRateLimit(t *testing.T) {
	f := newFixture(t)
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		ratelimit.ActionCreateConversation: {Every: time.Hour, Burst: 1},
	})
	uc := NewConversationUseCase(f.conversations, f.users, limiter)
	ctx := context.Background()

	first, err := uc.CreateOrGetConversation(ctx, "owner-a", "vet-b")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := uc.CreateOrGetConversation(ctx, "owner-a", "vet-b")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		reverse, err := uc.CreateOrGetConversation(ctx, "vet-b", "owner-a")
		require.NoError(t, err)
		assert.Equal(t, first.ID, reverse.ID)
	}

	_, err = uc.CreateOrGetConversation(ctx, "owner-a", "owner-c")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeTooManyRequests, appErr.Code)
}

func TestGetConversationsForUserNewestFirstWithResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withVet := f.conversation(t, "owner-a", "vet-b")
	time.Sleep(2 * time.Millisecond)
	withCarol := f.conversation(t, "owner-a", "owner-c")
	time.Sleep(2 * time.Millisecond)

	sent, err := f.messageUC.SendMessage(ctx, "vet-b", SendMessageInput{ConversationID: withVet.ID, Content: "How is Rex?"})
	require.NoError(t, err)

	list, err := f.conversationUC.GetConversationsForUser(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, withVet.ID, list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, sent.ID, list[0].LastMessage.ID)
	assert.Equal(t, "How is Rex?", list[0].LastMessage.Content)
	assert.Equal(t, "dr-bob", list[0].Participants[1].Username)
	assert.Equal(t, "vet", list[0].Participants[1].Role)

	assert.Equal(t, withCarol.ID, list[1].ID)
	assert.Nil(t, list[1].LastMessage)

	none, err := f.conversationUC.GetConversationsForUser(ctx, "admin-d")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetConversationByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.conversation(t, "owner-a", "vet-b")

	got, err := f.conversationUC.GetConversationByID(ctx, c.ID, "vet-b")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Participants[0].Username)

	_, err = f.conversationUC.GetConversationByID(ctx, c.ID, "owner-c")
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.conversationUC.GetConversationByID(ctx, "missing", "owner-a")
	assert.True(t, errors.IsNotFound(err))

	assert.NoError(t, f.conversationUC.AuthorizeJoin(ctx, "owner-a", c.ID))
	assert.Error(t, f.conversationUC.AuthorizeJoin(ctx, "owner-c", c.ID))
}
