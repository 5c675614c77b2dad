package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id uint) (*User, error)
	CreateUser(ctx context.Context, name, email, hashedPassword string) (*User, error)
	UpdateUserPassword(ctx context.Context, id uint, hashedPassword string) error
}

type ResetTokenStore interface {
	CreateResetToken(ctx context.Context, email, token string, expires time.Time) (*PasswordResetToken, error)
	FindValidResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	// ConsumeResetToken deletes a valid token and returns it. Only one caller gets it.
	ConsumeResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	DeleteResetTokens(ctx context.Context, email string) error
	DeleteExpiredResetTokens(ctx context.Context) (int64, error)
}

// ConversationStore does not check ownership; callers must.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID uint, title string) (*Conversation, error)
	FindConversation(ctx context.Context, id uint) (*Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]Conversation, error)
	RenameConversation(ctx context.Context, id uint, title string) error
	DeleteConversation(ctx context.Context, id uint) error
	AppendMessage(ctx context.Context, conversationID uint, content string, role Role) (*Message, error)
	ListMessages(ctx context.Context, conversationID uint) ([]Message, error)
}

// ChatStore is what the chat dashboard reads and writes.
type ChatStore interface {
	ConversationStore
	GoalStore
}

type ContactStore interface {
	CreateContact(ctx context.Context, name, email, subject, message string) (*Contact, error)
}

type NewsletterStore interface {
	FindSubscription(ctx context.Context, email string) (*NewsletterSubscription, error)
	CreateSubscription(ctx context.Context, email string) (*NewsletterSubscription, error)
}

type SessionStore interface {
	RevokeSession(ctx context.Context, accessUUID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, accessUUID string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context) (int64, error)
}

// Store is everything the services need; GormStore and MemoryStore both implement it.
type Store interface {
	UserStore
	ResetTokenStore
	ConversationStore
	GoalStore
	ContactStore
	NewsletterStore
	SessionStore
	Ping(ctx context.Context) error
}

// GormStore is the relational Store. Every call runs under timeout so pool
// exhaustion surfaces as a deadline error.
type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormStore(db *gorm.DB, timeout time.Duration) *GormStore {
	return &GormStore{db: db, timeout: timeout}
}

func (s *GormStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GormStore) now() time.Time {
	return s.db.NowFunc()
}

// Ping runs a trivial query through the pool.
func (s *GormStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

var _ Store = (*GormStore)(nil)
