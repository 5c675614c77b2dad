package model

import (
	"context"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known message roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is append-only; ordering is (created_at, id).
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_conversation_id_created_at" json:"conversationId"`
	Role           Role      `gorm:"type:varchar(64);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_conversation_id_created_at" json:"createdAt"`
}

func (s *GormStore) AppendMessage(ctx context.Context, conversationID uint, content string, role Role) (*Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	db := s.db.WithContext(ctx)
	message := &Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// only ever move updated_at forward
	if err := db.Model(&Conversation{}).
		Where("id = ? AND updated_at < ?", conversationID, message.CreatedAt).
		Update("updated_at", message.CreatedAt).Error; err != nil {
		return nil, fmt.Errorf("failed to bump conversation %d: %w", conversationID, err)
	}
	return message, nil
}

func (s *GormStore) ListMessages(ctx context.Context, conversationID uint) ([]Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var messages []Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return messages, nil
}
