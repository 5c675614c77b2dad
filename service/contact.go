package service

import (
	"context"
	"strings"

	"enviroagent/model"
)

type ContactService struct {
	store  model.ContactStore
	mailer *Mailer
}

func NewContactService(store model.ContactStore, mailer *Mailer) *ContactService {
	return &ContactService{store: store, mailer: mailer}
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Submit stores the contact record, then notifies support. A failed email is only logged.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*model.Contact, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || subject == "" || message == "" {
		return nil, invalid("All fields are required")
	}
	if !isValidEmail(email) {
		return nil, invalid("Invalid email address")
	}

	contact, err := s.store.CreateContact(ctx, name, email, subject, message)
	if err != nil {
		return nil, err
	}

	if result := s.mailer.SendContact(ctx, contact.Name, contact.Email, contact.Subject, contact.Message); !result.Success {
		logger.Warnf("[contact] notification for contact %d failed, %s", contact.ID, result.Error)
	}
	return contact, nil
}
