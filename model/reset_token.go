package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Token     string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"-"`
	Expires   time.Time `gorm:"not null;index" json:"expires"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateResetToken replaces any token already issued for email.
func (s *GormStore) CreateResetToken(ctx context.Context, email, token string, expires time.Time) (*PasswordResetToken, error) {
	if err := s.DeleteResetTokens(ctx, email); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record := &PasswordResetToken{Email: email, Token: token, Expires: expires.UTC(), CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}
	return record, nil
}

func (s *GormStore) FindValidResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var record PasswordResetToken
	err := s.db.WithContext(ctx).Where("token = ? AND expires > ?", token, s.now()).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &record, nil
}

func (s *GormStore) ConsumeResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	record, err := s.FindValidResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// a concurrent consumer that deleted it first leaves zero rows here
	result := s.db.WithContext(ctx).Delete(&PasswordResetToken{}, record.ID)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *GormStore) DeleteResetTokens(ctx context.Context, email string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Where("email = ?", email).Delete(&PasswordResetToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).Where("expires <= ?", s.now()).Delete(&PasswordResetToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
