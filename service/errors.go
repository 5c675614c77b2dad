package service

import (
	"errors"
	"fmt"
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError and returns its message.
func IsValidation(err error) (string, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message, true
	}
	return "", false
}

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrGoalNotFound         = errors.New("conversation has no goal yet")
	ErrNoConversation       = errors.New("no conversation selected")
	ErrReplyPending         = errors.New("a reply is already in progress")
	ErrResetEmailFailed     = errors.New("failed to send reset email")
)
