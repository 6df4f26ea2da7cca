package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Strimoid/models"
	"Strimoid/pkg/messaging"
)

func TestNotificationStore_UpsertCoalesces(t *testing.T) {
	db := setupTestDB(t)
	store := NewNotificationStore(db)
	ctx := context.Background()
	bob := seedUser(t, db, "bob")

	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0001", bob.ID, "hello"))
	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0001", bob.ID, "hello again"))
	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0002", bob.ID, "other thread"))

	pending, err := store.Pending(ctx, models.NotificationTypeConversation, "conv0001", bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "hello again", pending[0].Title)

	all, err := store.ListForUser(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unread, err := store.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)
}

func TestNotificationStore_RemovePendingIgnoresReadState(t *testing.T) {
	db := setupTestDB(t)
	store := NewNotificationStore(db)
	ctx := context.Background()
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0001", bob.ID, "x"))
	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0001", carol.ID, "y"))

	list, err := store.ListForUser(ctx, bob.ID, 1)
	require.NoError(t, err)
	require.NoError(t, store.MarkRead(ctx, bob.ID, list[0].ID))

	require.NoError(t, store.RemovePending(ctx, models.NotificationTypeConversation, "conv0001", bob.ID))

	left, err := store.ListForUser(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, left)

	others, err := store.ListForUser(ctx, carol.ID, 0)
	require.NoError(t, err)
	assert.Len(t, others, 1, "other recipients keep their notification")
}

func TestNotificationStore_MarkRead(t *testing.T) {
	db := setupTestDB(t)
	store := NewNotificationStore(db)
	ctx := context.Background()
	bob := seedUser(t, db, "bob")
	eve := seedUser(t, db, "eve")

	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0001", bob.ID, "a"))
	require.NoError(t, store.Upsert(ctx, models.NotificationTypeConversation, "conv0002", bob.ID, "b"))
	list, err := store.ListForUser(ctx, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	err = store.MarkRead(ctx, eve.ID, list[0].ID)
	assert.ErrorIs(t, err, messaging.ErrNotFound, "cannot mark someone else's notification")

	require.NoError(t, store.MarkRead(ctx, bob.ID, list[0].ID))
	unread, err := store.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	n, err := store.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	unread, err = store.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
