package messaging

import (
	"context"

	"Strimoid/models"
)

// UserDirectory resolves users and block relations.
type UserDirectory interface {
	// ResolveByName returns ErrNotFound when no such user exists.
	ResolveByName(ctx context.Context, name string) (*models.User, error)
	// IsBlocking reports whether blocker blocks blockee.
	IsBlocking(ctx context.Context, blocker, blockee uint) (bool, error)
}

// ConversationStore owns conversations and their messages.
type ConversationStore interface {
	// FindByParticipants is symmetric in a and b; ErrNotFound when absent.
	FindByParticipants(ctx context.Context, a, b uint) (*models.Conversation, error)
	// Create fails with ErrConflict if the pair already has a conversation.
	Create(ctx context.Context, a, b uint) (*models.Conversation, error)
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conv *models.Conversation, author uint, text string) (*models.ConversationMessage, error)
	// ListForUser returns conversations ordered by last message, newest first.
	ListForUser(ctx context.Context, uid uint) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conv *models.Conversation, pageSize, pageOffset int) ([]models.ConversationMessage, error)
	ListMessagesForUser(ctx context.Context, uid uint, pageSize, pageOffset int) ([]models.ConversationMessage, error)
}

// NotificationService coalesces notifications per (type, conversation, recipient).
type NotificationService interface {
	RemovePending(ctx context.Context, typ, conversationID string, recipientID uint) error
	Upsert(ctx context.Context, typ, conversationID string, recipientID uint, title string) error
}

// Stores groups the stores that take part in a messaging transaction.
type Stores struct {
	Conversations ConversationStore
	Notifications NotificationService
}

// Transactor runs fn atomically. The stores handed to fn are bound to the
// transaction; fn must not use stores obtained elsewhere.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// Event is pushed to a connected recipient after a send commits.
type Event struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	MessageID      uint   `json:"message_id"`
	From           uint   `json:"from"`
	Title          string `json:"title"`
}

// Publisher delivers events to online users. Delivery is best effort.
type Publisher interface {
	Publish(userID uint, ev Event) error
}
