package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokedSession marks a signed-out access token until the token would have expired anyway.
type RevokedSession struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccessUUID string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"accessUuid"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s *GormStore) RevokeSession(ctx context.Context, accessUUID string, expiresAt time.Time) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	revoked := &RevokedSession{AccessUUID: accessUUID, ExpiresAt: expiresAt.UTC(), CreatedAt: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(revoked).Error
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *GormStore) IsSessionRevoked(ctx context.Context, accessUUID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var revoked RevokedSession
	err := s.db.WithContext(ctx).Where("access_uuid = ?", accessUUID).First(&revoked).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("database query failed: %w", err)
	}
	return true, nil
}

func (s *GormStore) DeleteExpiredRevocations(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&RevokedSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired revocations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
