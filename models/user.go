package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	UserTypeUser    = "user"
	UserTypeBanned  = "banned"
	UserTypeAdmin   = "admin"
	UserTypeDeleted = "deleted"
)

const (
	SexUnknown = "unknown"
	SexMale    = "male"
	SexFemale  = "female"
)

// Profile is the user-editable part of the account. Age holds the birth year.
type Profile struct {
	Sex         string `json:"sex"`
	Age         int    `json:"age"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Validate checks the profile limits; zero values mean "not set".
func (p Profile) Validate() error {
	switch p.Sex {
	case "", SexUnknown, SexMale, SexFemale:
	default:
		return &SettingsError{"sex", "must be male or female"}
	}
	if p.Age != 0 && (p.Age < 1900 || p.Age > 2010) {
		return &SettingsError{"age", "must be between 1900 and 2010"}
	}
	if utf8.RuneCountInString(p.Location) > 32 {
		return &SettingsError{"location", "may not be greater than 32 characters"}
	}
	if utf8.RuneCountInString(p.Description) > 250 {
		return &SettingsError{"description", "may not be greater than 250 characters"}
	}
	return nil
}

type User struct {
	gorm.Model
	Name            string       `gorm:"uniqueIndex;size:30;not null"`
	ShadowName      string       `gorm:"uniqueIndex;size:30;not null"`
	Email           string       `gorm:"uniqueIndex;size:120;not null"`
	PasswordHash    string       `gorm:"size:60;not null"`
	Type            string       `gorm:"size:10;not null;default:user"`
	LastIP          string       `gorm:"size:45"`
	IsActivated     bool         `gorm:"not null;default:false"`
	ActivationToken string       `gorm:"size:16;index"`
	TotalPoints     int          `gorm:"not null;default:0"`
	Avatar          string       `gorm:"size:16"`
	Age             int          `gorm:"not null;default:0"`
	Sex             string       `gorm:"size:10;not null;default:unknown"`
	Location        string       `gorm:"size:32"`
	Description     string       `gorm:"size:255"`
	Settings        UserSettings `gorm:"serializer:json"`
	LastLogin       *time.Time
	RemovedAt       *time.Time
	BlockedAt       *time.Time
}

// ShadowNameOf returns the lookup key used for case-insensitive name matching.
func ShadowNameOf(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// CanLogin reports whether the account is activated and neither removed nor blocked.
func (u *User) CanLogin() bool {
	return u.IsActivated && u.RemovedAt == nil && u.BlockedAt == nil
}

// UserBlocked records that Source blocks Target. The relation is directed.
type UserBlocked struct {
	ID        uint `gorm:"primarykey"`
	SourceID  uint `gorm:"not null;uniqueIndex:idx_user_block_pair"`
	TargetID  uint `gorm:"not null;uniqueIndex:idx_user_block_pair;index"`
	Target    User `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserBlocked) TableName() string {
	return "user_blocked_users"
}
