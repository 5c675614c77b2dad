package service

import (
	"context"
	"errors"
	"fmt"

	"enviroagent/model"
)

type NewsletterService struct {
	store  model.NewsletterStore
	mailer *Mailer
}

func NewNewsletterService(store model.NewsletterStore, mailer *Mailer) *NewsletterService {
	return &NewsletterService{store: store, mailer: mailer}
}

// Subscribe records the email once; a second subscribe fails without touching the first record.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalid("Email is required")
	}
	if !isValidEmail(email) {
		return nil, invalid("Invalid email address")
	}

	if _, err := s.store.FindSubscription(ctx, email); err == nil {
		return nil, invalid("Email already subscribed")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check existing subscription: %w", err)
	}

	subscription, err := s.store.CreateSubscription(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return nil, invalid("Email already subscribed")
		}
		return nil, err
	}

	if result := s.mailer.SendNewsletter(ctx, subscription.Email); !result.Success {
		logger.Warnf("[newsletter] confirmation for subscription %d failed, %s", subscription.ID, result.Error)
	}
	return subscription, nil
}
