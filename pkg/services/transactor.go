package services

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"Strimoid/pkg/messaging"
)

// NewStores returns messaging stores bound to db, which may be a transaction.
func NewStores(db *gorm.DB) messaging.Stores {
	return messaging.Stores{
		Conversations: NewConversationStore(db),
		Notifications: NewNotificationStore(db),
	}
}

// Transactor runs messaging work inside one gorm transaction.
type Transactor struct {
	db     *gorm.DB
	stores func(tx *gorm.DB) messaging.Stores
}

var _ messaging.Transactor = (*Transactor)(nil)

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db, stores: NewStores}
}

// WithinTransaction runs fn in one transaction. On MySQL it uses READ
// COMMITTED so the re-fetch after a duplicate insert sees the winner's row.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s messaging.Stores) error) error {
	var opts []*sql.TxOptions
	if t.db.Dialector.Name() == "mysql" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(ctx, t.stores(tx)); err != nil {
			return err
		}
		// a cancelled context makes Commit fail anyway; report the cause
		return ctx.Err()
	}, opts...)
}
