package model

import (
	"context"
	"fmt"
	"time"
)

// Contact is a write-once record of a contact form submission.
type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *GormStore) CreateContact(ctx context.Context, name, email, subject, message string) (*Contact, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	contact := &Contact{Name: name, Email: email, Subject: subject, Message: message, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}
