package messaging

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by the messaging core and its stores. Callers match them
// with errors.Is.
var (
	// ErrNotFound covers unknown users and conversations as well as
	// conversations the caller does not participate in.
	ErrNotFound    = errors.New("messaging: not found")
	ErrSelfMessage = errors.New("messaging: cannot send a message to yourself")
	ErrBlocked     = errors.New("messaging: recipient is blocking the sender")
	ErrValidation  = errors.New("messaging: validation failed")
	// ErrConflict means a conversation for the pair already exists; it is
	// recoverable by re-fetching.
	ErrConflict = errors.New("messaging: conversation already exists")
	ErrTimeout  = errors.New("messaging: operation timed out")
	// ErrPersistence wraps infrastructure failures from the stores.
	ErrPersistence = errors.New("messaging: persistence error")
)

// ValidationError describes an invalid field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("messaging: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// timeoutOr reports ErrTimeout when ctx is done or err stems from context
// expiry, and returns err unchanged otherwise.
func timeoutOr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, cerr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
