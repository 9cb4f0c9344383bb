package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketplace-system/internal/domain"
	"marketplace-system/internal/infrastructure/memory"
	"marketplace-system/pkg/logger"
)

type messageFixture struct {
	svc   *MessageService
	store *memory.Store
	clock *testClock
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	store := memory.NewStore()
	clock := newTestClock()
	svc := NewMessageService(
		memory.NewMessageRepository(store),
		memory.NewListingRepository(store),
		clock.Now,
		logger.NewNop(),
	)

	listings := memory.NewListingRepository(store)
	err := listings.CreateListing(context.Background(), &domain.Listing{
		ID:      "l1",
		OwnerID: "alice",
		Name:    "Vintage Camera",
	})
	require.NoError(t, err)

	store.SaveUser(&domain.User{ID: "alice", Name: "Alice"})
	store.SaveUser(&domain.User{ID: "bob", Name: "Bob"})
	return &messageFixture{svc: svc, store: store, clock: clock}
}

func TestSendMessage(t *testing.T) {
	f := newMessageFixture(t)

	t.Run("delivers to the listing owner", func(t *testing.T) {
		msg, err := f.svc.SendMessage(context.Background(), "l1", "bob", "Is this still available?")
		require.NoError(t, err)
		require.Equal(t, "bob", msg.SenderID)
		require.Equal(t, "alice", msg.ReceiverID)
		require.Equal(t, "l1", msg.ListingID)
		require.False(t, msg.Read)
		require.Equal(t, f.clock.Now(), msg.CreatedAt)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := f.svc.SendMessage(context.Background(), "l1", "bob", "   ")
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("rejects unknown listing", func(t *testing.T) {
		_, err := f.svc.SendMessage(context.Background(), "missing", "bob", "hello")
		require.ErrorIs(t, err, domain.ErrListingNotFound)
	})

	t.Run("owner cannot message themselves", func(t *testing.T) {
		_, err := f.svc.SendMessage(context.Background(), "l1", "alice", "hello me")
		require.ErrorIs(t, err, domain.ErrSelfMessage)
	})
}

func TestListMessagesForUser(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.SendMessage(context.Background(), "l1", "bob", "first")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.SendMessage(context.Background(), "l1", "bob", "second")
	require.NoError(t, err)

	// Both sides of the conversation see it, most recent first, with names
	// and the listing joined in.
	for _, userID := range []string{"alice", "bob"} {
		msgs, err := f.svc.ListMessagesForUser(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		require.Equal(t, "second", msgs[0].Content)
		require.Equal(t, "Bob", msgs[0].SenderName)
		require.Equal(t, "Alice", msgs[0].ReceiverName)
		require.Equal(t, "Vintage Camera", msgs[0].ListingName)
	}

	none, err := f.svc.ListMessagesForUser(context.Background(), "stranger")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMarkAsRead(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.SendMessage(context.Background(), "l1", "bob", "hello")
	require.NoError(t, err)

	// Only the receiver may mark it read.
	err = f.svc.MarkAsRead(context.Background(), msg.ID, "bob")
	require.ErrorIs(t, err, domain.ErrMessageNotFound)

	err = f.svc.MarkAsRead(context.Background(), msg.ID, "alice")
	require.NoError(t, err)

	msgs, err := f.svc.ListMessagesForUser(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, msgs[0].Read)

	// And only once.
	err = f.svc.MarkAsRead(context.Background(), msg.ID, "alice")
	require.ErrorIs(t, err, domain.ErrMessageNotFound)

	err = f.svc.MarkAsRead(context.Background(), "missing", "alice")
	require.ErrorIs(t, err, domain.ErrMessageNotFound)
}
