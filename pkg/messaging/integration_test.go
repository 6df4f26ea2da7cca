package messaging_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Strimoid/models"
	"Strimoid/pkg/cache"
	"Strimoid/pkg/database"
	"Strimoid/pkg/messaging"
	"Strimoid/pkg/services"
)

type fixture struct {
	db    *gorm.DB
	svc   *messaging.Service
	users *services.UserDirectory
	notes *services.NotificationStore
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "messaging.db") + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	db, err := database.Open("sqlite", dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := services.NewUserDirectory(db, zerolog.Nop(), cache.New(100), time.Minute)
	svc := messaging.NewService(zerolog.Nop(), users, services.NewStores(db), services.NewTransactor(db))
	return &fixture{db: db, svc: svc, users: users, notes: services.NewNotificationStore(db)}
}

func (f *fixture) user(t *testing.T, name string) uint {
	t.Helper()
	u := models.User{Name: name, ShadowName: models.ShadowNameOf(name), Email: name + "@example.com", IsActivated: true}
	require.NoError(t, f.db.Create(&u).Error)
	return u.ID
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestConversationFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice, bob := f.user(t, "Alice"), f.user(t, "bob")

	m1, conv, err := f.svc.StartOrContinueConversation(ctx, alice, "bob", "hello")
	require.NoError(t, err)
	m2, again, err := f.svc.StartOrContinueConversation(ctx, bob, "alice", "hey")
	require.NoError(t, err)
	m3, err := f.svc.SendMessage(ctx, alice, conv.ID, "how are you")
	require.NoError(t, err)

	assert.Equal(t, conv.ID, again.ID)
	assert.EqualValues(t, 1, f.count(t, &models.Conversation{}))
	assert.True(t, m1.CreatedAt.Before(m2.CreatedAt))
	assert.True(t, m2.CreatedAt.Before(m3.CreatedAt))

	stored, err := f.svc.Conversation(ctx, bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, m3.ID, *stored.LastMessageID)
	assert.True(t, stored.LastMessageAt.Equal(m3.CreatedAt))

	msgs, err := f.svc.Messages(ctx, bob, stored, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "how are you", msgs[0].Text)

	pending, err := f.notes.Pending(ctx, models.NotificationTypeConversation, conv.ID, bob)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "how are you", pending[0].Title)

	pending, err = f.notes.Pending(ctx, models.NotificationTypeConversation, conv.ID, alice)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "hey", pending[0].Title)
}

func TestBlockedSenderLeavesNoTrace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	require.NoError(t, f.users.Block(ctx, bob, alice))

	_, _, err := f.svc.StartOrContinueConversation(ctx, alice, "bob", "hello")
	assert.ErrorIs(t, err, messaging.ErrBlocked)
	assert.Zero(t, f.count(t, &models.Conversation{}))
	assert.Zero(t, f.count(t, &models.ConversationMessage{}))
	assert.Zero(t, f.count(t, &models.Notification{}))

	// the blocker may still write
	_, _, err = f.svc.StartOrContinueConversation(ctx, bob, "alice", "go away")
	require.NoError(t, err)

	require.NoError(t, f.users.Unblock(ctx, bob, alice))
	_, _, err = f.svc.StartOrContinueConversation(ctx, alice, "bob", "sorry")
	assert.NoError(t, err)
}

func TestBlockByAnotherProcessIsEnforced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	_, conv, err := f.svc.StartOrContinueConversation(ctx, alice, "bob", "hello")
	require.NoError(t, err)

	// a second directory on the same database, as the admin CLI has
	admin := services.NewUserDirectory(f.db, zerolog.Nop(), cache.New(10), time.Minute)
	require.NoError(t, admin.Block(ctx, bob, alice))

	_, err = f.svc.SendMessage(ctx, alice, conv.ID, "still there?")
	assert.ErrorIs(t, err, messaging.ErrBlocked)
	assert.EqualValues(t, 1, f.count(t, &models.ConversationMessage{}))
}

func TestConcurrentFirstContact(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.StartOrContinueConversation(ctx, alice, "bob", "a")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, _, err := f.svc.StartOrContinueConversation(ctx, bob, "alice", "b")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, f.count(t, &models.Conversation{}))
	assert.EqualValues(t, 2*n, f.count(t, &models.ConversationMessage{}))
	assert.EqualValues(t, 2, f.count(t, &models.Notification{}))
}

func TestReadNotificationIsReplaced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	_, conv, err := f.svc.StartOrContinueConversation(ctx, alice, "bob", "one")
	require.NoError(t, err)
	_, err = f.notes.MarkAllRead(ctx, bob)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, alice, conv.ID, "two")
	require.NoError(t, err)

	pending, err := f.notes.Pending(ctx, models.NotificationTypeConversation, conv.ID, bob)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "two", pending[0].Title)
	assert.False(t, pending[0].Read)
}

func TestCancelledContextCommitsNothing(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	f.user(t, "bob")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := f.svc.StartOrContinueConversation(ctx, alice, "bob", "hello")
	assert.ErrorIs(t, err, messaging.ErrTimeout)
	assert.Zero(t, f.count(t, &models.Conversation{}))
}
