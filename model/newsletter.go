package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type NewsletterSubscription struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *GormStore) FindSubscription(ctx context.Context, email string) (*NewsletterSubscription, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var subscription NewsletterSubscription
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &subscription, nil
}

func (s *GormStore) CreateSubscription(ctx context.Context, email string) (*NewsletterSubscription, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	subscription := &NewsletterSubscription{Email: email, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return subscription, nil
}
