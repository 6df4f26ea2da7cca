package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Strimoid/models"
	"Strimoid/pkg/messaging"
	utils "Strimoid/pkg/utills"
)

const (
	conversationIDLength = 8
	maxIDAttempts        = 3
)

// ConversationStore implements messaging.ConversationStore on gorm.
type ConversationStore struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

var _ messaging.ConversationStore = (*ConversationStore)(nil)

func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{
		db:    db,
		now:   time.Now,
		newID: func() string { return utils.RandomString(conversationIDLength) },
	}
}

// WithClock replaces the time source used for message timestamps.
func (s *ConversationStore) WithClock(now func() time.Time) *ConversationStore {
	s.now = now
	return s
}

func (s *ConversationStore) FindByParticipants(ctx context.Context, a, b uint) (*models.Conversation, error) {
	lo, hi := models.OrderedPair(a, b)
	var conv models.Conversation
	// plain read: a locking read on a missing row takes a gap lock on MySQL
	// and two first contacts would then deadlock on insert
	err := s.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", lo, hi).
		First(&conv).Error
	if err != nil {
		return nil, persistence(err)
	}
	return &conv, nil
}

func (s *ConversationStore) Create(ctx context.Context, a, b uint) (*models.Conversation, error) {
	if a == b {
		return nil, &messaging.ValidationError{Field: "participants", Message: "participants must be distinct"}
	}
	lo, hi := models.OrderedPair(a, b)

	now := s.now().UTC().Truncate(time.Millisecond)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		conv := models.Conversation{
			ID:            s.newID(),
			ParticipantA:  lo,
			ParticipantB:  hi,
			LastMessageAt: now,
			CreatedAt:     now,
		}
		err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&conv).Error
		if err == nil {
			return &conv, nil
		}
		if !isDuplicate(err) {
			return nil, persistence(err)
		}
		// either the pair exists or the random id collided
		if _, ferr := s.FindByParticipants(ctx, lo, hi); ferr == nil {
			return nil, messaging.ErrConflict
		} else if !errors.Is(ferr, messaging.ErrNotFound) {
			return nil, ferr
		}
	}
	return nil, messaging.ErrConflict
}

func (s *ConversationStore) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, persistence(err)
	}
	return &conv, nil
}

// AppendMessage stores a message and advances the conversation's last
// message pointer. Timestamps within a conversation strictly increase.
func (s *ConversationStore) AppendMessage(ctx context.Context, conv *models.Conversation, author uint, text string) (*models.ConversationMessage, error) {
	if !conv.HasParticipant(author) {
		return nil, &messaging.ValidationError{Field: "author", Message: "author is not a participant"}
	}
	if err := messaging.ValidateText(text); err != nil {
		return nil, err
	}

	var msg models.ConversationMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", conv.ID).First(&current).Error; err != nil {
			return persistence(err)
		}

		created := s.now().UTC().Truncate(time.Millisecond)
		if !created.After(current.LastMessageAt) {
			created = current.LastMessageAt.Add(time.Millisecond)
		}

		msg = models.ConversationMessage{
			ConversationID: conv.ID,
			UserID:         author,
			Text:           text,
			CreatedAt:      created,
		}
		if err := tx.Omit(clause.Associations).Create(&msg).Error; err != nil {
			return persistence(err)
		}

		err := tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]any{"last_message_at": created, "last_message_id": msg.ID}).Error
		return persistence(err)
	})
	if err != nil {
		return nil, err
	}

	conv.LastMessageAt = msg.CreatedAt
	conv.LastMessageID = &msg.ID
	return &msg, nil
}

func (s *ConversationStore) ListForUser(ctx context.Context, uid uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", uid, uid).
		Order("last_message_at DESC").
		Order("created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, persistence(err)
	}
	return convs, nil
}

func (s *ConversationStore) ListMessages(ctx context.Context, conv *models.Conversation, pageSize, pageOffset int) ([]models.ConversationMessage, error) {
	var msgs []models.ConversationMessage
	err := s.paged(ctx, pageSize, pageOffset).
		Where("conversation_id = ?", conv.ID).
		Find(&msgs).Error
	if err != nil {
		return nil, persistence(err)
	}
	return msgs, nil
}

func (s *ConversationStore) ListMessagesForUser(ctx context.Context, uid uint, pageSize, pageOffset int) ([]models.ConversationMessage, error) {
	ids := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Select("id").
		Where("participant_a = ? OR participant_b = ?", uid, uid)

	var msgs []models.ConversationMessage
	err := s.paged(ctx, pageSize, pageOffset).
		Where("conversation_id IN (?)", ids).
		Find(&msgs).Error
	if err != nil {
		return nil, persistence(err)
	}
	return msgs, nil
}

// LastMessages returns the last message of each conversation keyed by conversation id.
func (s *ConversationStore) LastMessages(ctx context.Context, convs []models.Conversation) (map[string]models.ConversationMessage, error) {
	var ids []uint
	for _, c := range convs {
		if c.LastMessageID != nil {
			ids = append(ids, *c.LastMessageID)
		}
	}
	out := make(map[string]models.ConversationMessage, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var msgs []models.ConversationMessage
	if err := s.db.WithContext(ctx).Preload("User").Where("id IN ?", ids).Find(&msgs).Error; err != nil {
		return nil, persistence(err)
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}

func (s *ConversationStore) paged(ctx context.Context, pageSize, pageOffset int) *gorm.DB {
	if pageSize <= 0 {
		pageSize = messaging.DefaultPageSize
	}
	if pageOffset < 0 {
		pageOffset = 0
	}
	return s.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset(pageOffset)
}
