package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GoalProfile is the structured reading of a goal description.
type GoalProfile struct {
	GoalType                string   `json:"goalType"`
	Priority                string   `json:"priority"`
	TimeFrame               string   `json:"timeFrame"`
	EnvironmentRequirements []string `json:"environmentRequirements"`
	SuccessMetrics          []string `json:"successMetrics"`
	EstimatedDifficulty     string   `json:"estimatedDifficulty"`
}

// ConversationGoal pins a conversation to the goal stated in its first user message.
type ConversationGoal struct {
	ConversationID     uint        `gorm:"primaryKey;autoIncrement:false" json:"conversationId"`
	InitialDescription string      `gorm:"type:text;not null" json:"initialDescription"`
	Structured         GoalProfile `gorm:"type:text;serializer:json" json:"structured"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

type GoalStore interface {
	FindConversationGoal(ctx context.Context, conversationID uint) (*ConversationGoal, error)
	// SaveConversationGoal inserts the goal, or replaces the structured profile of an existing one.
	SaveConversationGoal(ctx context.Context, conversationID uint, description string, profile GoalProfile) (*ConversationGoal, error)
}

func (s *GormStore) FindConversationGoal(ctx context.Context, conversationID uint) (*ConversationGoal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var goal ConversationGoal
	if err := s.db.WithContext(ctx).First(&goal, "conversation_id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &goal, nil
}

func (s *GormStore) SaveConversationGoal(ctx context.Context, conversationID uint, description string, profile GoalProfile) (*ConversationGoal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	goal := &ConversationGoal{
		ConversationID:     conversationID,
		InitialDescription: description,
		Structured:         profile,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"structured", "updated_at"}),
	}).Create(goal).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save conversation goal: %w", err)
	}
	// an update keeps the stored description
	return s.FindConversationGoal(ctx, conversationID)
}
