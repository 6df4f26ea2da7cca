package services

import (
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"Strimoid/pkg/messaging"
)

var (
	ErrAlreadyBlocked  = errors.New("services: user already blocked")
	ErrNotBlocked      = errors.New("services: user not blocked")
	ErrCannotBlockSelf = errors.New("services: cannot block self")
)

// persistence wraps a database error; record-not-found becomes messaging.ErrNotFound.
func persistence(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return messaging.ErrNotFound
	}
	if isLockConflict(err) {
		return fmt.Errorf("%w: %v", messaging.ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", messaging.ErrPersistence, err)
}

// isDuplicate reports a unique-constraint violation. TranslateError covers
// both drivers; the message check is kept for connections opened without it.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// isLockConflict reports a deadlock or lock wait timeout. The database has
// rolled the transaction back, so the caller must retry it as a whole.
func isLockConflict(err error) bool {
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return strings.Contains(err.Error(), "database is locked")
}
