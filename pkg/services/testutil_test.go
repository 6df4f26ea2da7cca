package services

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"Strimoid/models"
	"Strimoid/pkg/database"
)

// setupTestDB opens a migrated SQLite database private to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	db, err := database.Open("sqlite", dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// seedUser inserts an activated user and returns it.
func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()

	u := models.User{
		Name:        name,
		ShadowName:  models.ShadowNameOf(name),
		Email:       models.ShadowNameOf(name) + "@example.com",
		IsActivated: true,
		Settings:    models.DefaultUserSettings(),
	}
	if err := u.SetPassword("secret1"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", name, err)
	}
	return u
}
