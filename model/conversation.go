package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *GormStore) CreateConversation(ctx context.Context, userID uint, title string) (*Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	conversation := &Conversation{UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

func (s *GormStore) FindConversation(ctx context.Context, id uint) (*Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var conversation Conversation
	if err := s.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &conversation, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *GormStore) ListConversations(ctx context.Context, userID uint) ([]Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var conversations []Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	return conversations, nil
}

func (s *GormStore) RenameConversation(ctx context.Context, id uint, title string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// UpdateColumn keeps updated_at tied to message appends
	result := s.db.WithContext(ctx).Model(&Conversation{}).Where("id = ?", id).UpdateColumn("title", title)
	if result.Error != nil {
		return fmt.Errorf("failed to rename conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes the conversation, its messages and its goal.
func (s *GormStore) DeleteConversation(ctx context.Context, id uint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	db := s.db.WithContext(ctx)
	if err := db.Where("conversation_id = ?", id).Delete(&Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages of conversation %d: %w", id, err)
	}
	if err := db.Where("conversation_id = ?", id).Delete(&ConversationGoal{}).Error; err != nil {
		return fmt.Errorf("failed to delete goal of conversation %d: %w", id, err)
	}
	result := db.Delete(&Conversation{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
