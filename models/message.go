package models

import "time"

type ConversationMessage struct {
	ID             uint      `gorm:"primarykey"`
	ConversationID string    `gorm:"size:8;index;not null"`
	UserID         uint      `gorm:"index;not null"`
	User           User      `gorm:"foreignKey:UserID"`
	Text           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index"`
}
