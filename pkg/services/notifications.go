package services

import (
	"context"

	"gorm.io/gorm"

	"Strimoid/models"
	"Strimoid/pkg/messaging"
)

// NotificationStore keeps at most one notification per (type, conversation, user).
type NotificationStore struct {
	db *gorm.DB
}

var _ messaging.NotificationService = (*NotificationStore)(nil)

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// RemovePending deletes the notification for the key whether or not it was read.
func (s *NotificationStore) RemovePending(ctx context.Context, typ, conversationID string, recipientID uint) error {
	err := s.db.WithContext(ctx).
		Where("type = ? AND conversation_id = ? AND user_id = ?", typ, conversationID, recipientID).
		Delete(&models.Notification{}).Error
	return persistence(err)
}

// Upsert replaces any notification for the key with a fresh unread one.
func (s *NotificationStore) Upsert(ctx context.Context, typ, conversationID string, recipientID uint, title string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("type = ? AND conversation_id = ? AND user_id = ?", typ, conversationID, recipientID).
			Delete(&models.Notification{}).Error
		if err != nil {
			return persistence(err)
		}
		n := models.Notification{
			Type:           typ,
			ConversationID: &conversationID,
			UserID:         recipientID,
			Title:          title,
		}
		return persistence(tx.Create(&n).Error)
	})
}

// ListForUser returns the newest notifications of uid, up to limit (0 = all).
func (s *NotificationStore) ListForUser(ctx context.Context, uid uint, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", uid).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

// Pending returns the unread notifications of uid for the given key.
func (s *NotificationStore) Pending(ctx context.Context, typ, conversationID string, uid uint) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("type = ? AND conversation_id = ? AND user_id = ? AND `read` = ?", typ, conversationID, uid, false).
		Find(&out).Error
	if err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, uid uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", uid, false).
		Count(&n).Error
	return n, persistence(err)
}

// MarkRead marks one notification of uid as read; ErrNotFound if uid does not own it.
func (s *NotificationStore) MarkRead(ctx context.Context, uid, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, uid).
		Update("read", true)
	if res.Error != nil {
		return persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return messaging.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, uid uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", uid, false).
		Update("read", true)
	return res.RowsAffected, persistence(res.Error)
}
