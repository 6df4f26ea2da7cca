package models

import "time"

const NotificationTypeConversation = "conversation"

type Notification struct {
	ID             uint    `gorm:"primarykey"`
	Type           string  `gorm:"size:20;not null;index:idx_notification_key"`
	ConversationID *string `gorm:"size:8;index:idx_notification_key"`
	UserID         uint    `gorm:"not null;index:idx_notification_key"`
	Title          string  `gorm:"type:text"`
	Read           bool    `gorm:"not null;default:false"`
	CreatedAt      time.Time
}
