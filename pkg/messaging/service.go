// Package messaging implements private conversations between two users:
// conversation reuse per pair, message append, block checks and
// notification coalescing.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"Strimoid/models"
)

const DefaultPageSize = 50

// Service is the entry point used by the request layer. The sender is always
// passed explicitly; the service never authenticates.
type Service struct {
	log       zerolog.Logger
	users     UserDirectory
	stores    Stores
	tx        Transactor
	publisher Publisher
	locks     *keyLock
	pageSize  int
}

// NewService wires the core. stores is used for reads outside a transaction.
func NewService(log zerolog.Logger, users UserDirectory, stores Stores, tx Transactor) *Service {
	return &Service{
		log:      log,
		users:    users,
		stores:   stores,
		tx:       tx,
		locks:    newKeyLock(),
		pageSize: DefaultPageSize,
	}
}

// WithPublisher sets the realtime publisher notified after each committed send.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithPageSize sets the page size used by Messages and AllMessages.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// StartOrContinueConversation sends text from sender to the user named
// recipientName, creating the conversation on first contact.
func (s *Service) StartOrContinueConversation(ctx context.Context, sender uint, recipientName, text string) (*models.ConversationMessage, *models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, timeoutOr(ctx, err)
	}

	recipient, err := s.users.ResolveByName(ctx, recipientName)
	if err != nil {
		return nil, nil, timeoutOr(ctx, err)
	}
	if recipient.ID == sender {
		return nil, nil, ErrSelfMessage
	}
	if err := s.checkBlocked(ctx, recipient.ID, sender); err != nil {
		return nil, nil, err
	}
	if err := ValidateText(text); err != nil {
		return nil, nil, err
	}

	release := s.locks.Acquire(pairKey(sender, recipient.ID))
	defer release()

	var (
		conv *models.Conversation
		msg  *models.ConversationMessage
	)
	err = s.inTransaction(ctx, func(ctx context.Context, st Stores) error {
		c, existed, err := findOrCreate(ctx, st.Conversations, sender, recipient.ID)
		if err != nil {
			return err
		}
		if !existed {
			s.log.Info().Str("conversation", c.ID).Uint("a", c.ParticipantA).Uint("b", c.ParticipantB).Msg("conversation created")
		}

		m, err := s.deliver(ctx, st, c, sender, recipient.ID, text, existed)
		if err != nil {
			return err
		}
		conv, msg = c, m
		return nil
	})
	if err != nil {
		return nil, nil, timeoutOr(ctx, err)
	}

	s.publish(recipient.ID, conv, msg)
	return msg, conv, nil
}

// SendMessage appends text to an existing conversation of sender.
// Non-participants get ErrNotFound.
func (s *Service) SendMessage(ctx context.Context, sender uint, conversationID, text string) (*models.ConversationMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeoutOr(ctx, err)
	}

	conv, err := s.Conversation(ctx, sender, conversationID)
	if err != nil {
		return nil, err
	}
	recipient := conv.Other(sender)

	if err := s.checkBlocked(ctx, recipient, sender); err != nil {
		return nil, err
	}
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(pairKey(sender, recipient))
	defer release()

	var msg *models.ConversationMessage
	err = s.inTransaction(ctx, func(ctx context.Context, st Stores) error {
		m, err := s.deliver(ctx, st, conv, sender, recipient, text, true)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	s.publish(recipient, conv, msg)
	return msg, nil
}

// inTransaction runs fn atomically and retries it once when the store
// reports a conflict that could not be resolved inside the transaction,
// such as a deadlock the database rolled back.
func (s *Service) inTransaction(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	err := s.tx.WithinTransaction(ctx, fn)
	if errors.Is(err, ErrConflict) && ctx.Err() == nil {
		s.log.Debug().Err(err).Msg("retrying conflicted transaction")
		err = s.tx.WithinTransaction(ctx, fn)
	}
	return err
}

// deliver drops the stale pending notification, appends the message and
// creates a fresh notification carrying the new text.
func (s *Service) deliver(ctx context.Context, st Stores, conv *models.Conversation, sender, recipient uint, text string, existed bool) (*models.ConversationMessage, error) {
	if existed {
		if err := st.Notifications.RemovePending(ctx, models.NotificationTypeConversation, conv.ID, recipient); err != nil {
			return nil, fmt.Errorf("remove pending notification: %w", err)
		}
	}

	msg, err := st.Conversations.AppendMessage(ctx, conv, sender, text)
	if err != nil {
		return nil, err
	}

	if err := st.Notifications.Upsert(ctx, models.NotificationTypeConversation, conv.ID, recipient, msg.Text); err != nil {
		return nil, fmt.Errorf("upsert notification: %w", err)
	}
	return msg, nil
}

func (s *Service) checkBlocked(ctx context.Context, recipient, sender uint) error {
	blocked, err := s.users.IsBlocking(ctx, recipient, sender)
	if err != nil {
		return timeoutOr(ctx, err)
	}
	if blocked {
		return ErrBlocked
	}
	return nil
}

func (s *Service) publish(recipient uint, conv *models.Conversation, msg *models.ConversationMessage) {
	if s.publisher == nil {
		return
	}
	ev := Event{
		Type:           models.NotificationTypeConversation,
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		From:           msg.UserID,
		Title:          msg.Text,
	}
	if err := s.publisher.Publish(recipient, ev); err != nil {
		s.log.Warn().Err(err).Uint("user", recipient).Str("conversation", conv.ID).Msg("realtime publish failed")
	}
}

// findOrCreate returns the pair's conversation and whether it already
// existed. A lost creation race is resolved by re-fetching once.
func findOrCreate(ctx context.Context, store ConversationStore, a, b uint) (*models.Conversation, bool, error) {
	conv, err := store.FindByParticipants(ctx, a, b)
	if err == nil {
		return conv, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	conv, err = store.Create(ctx, a, b)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, false, err
	}

	conv, err = store.FindByParticipants(ctx, a, b)
	if errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("%w: pair not visible after conflict", ErrConflict)
	}
	if err != nil {
		return nil, false, fmt.Errorf("re-fetch after conflict: %w", err)
	}
	return conv, true, nil
}

// ListConversations returns the conversations of uid, most recent first.
func (s *Service) ListConversations(ctx context.Context, uid uint) ([]models.Conversation, error) {
	convs, err := s.stores.Conversations.ListForUser(ctx, uid)
	return convs, timeoutOr(ctx, err)
}

// Conversation loads a conversation uid participates in.
func (s *Service) Conversation(ctx context.Context, uid uint, id string) (*models.Conversation, error) {
	conv, err := s.stores.Conversations.FindByID(ctx, id)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	if !conv.HasParticipant(uid) {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Messages returns one page (1-based) of a conversation's messages, newest first.
func (s *Service) Messages(ctx context.Context, uid uint, conv *models.Conversation, page int) ([]models.ConversationMessage, error) {
	if !conv.HasParticipant(uid) {
		return nil, ErrNotFound
	}
	msgs, err := s.stores.Conversations.ListMessages(ctx, conv, s.pageSize, s.offset(page))
	return msgs, timeoutOr(ctx, err)
}

// AllMessages returns one page of messages across every conversation of uid.
func (s *Service) AllMessages(ctx context.Context, uid uint, page int) ([]models.ConversationMessage, error) {
	msgs, err := s.stores.Conversations.ListMessagesForUser(ctx, uid, s.pageSize, s.offset(page))
	return msgs, timeoutOr(ctx, err)
}

func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * s.pageSize
}
