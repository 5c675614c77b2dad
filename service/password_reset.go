package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"enviroagent/model"

	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// ResetRequestedMessage is returned whether or not the account exists.
const ResetRequestedMessage = "If an account with that email exists, we sent a password reset link."

type PasswordResetService struct {
	users  model.UserStore
	tokens model.ResetTokenStore
	mailer *Mailer
	ttl    time.Duration
	cost   int
}

func NewPasswordResetService(users model.UserStore, tokens model.ResetTokenStore, mailer *Mailer, cost int) *PasswordResetService {
	return &PasswordResetService{users: users, tokens: tokens, mailer: mailer, ttl: resetTokenTTL, cost: hashCost(cost)}
}

// newResetToken returns 32 hex characters from crypto/rand.
func newResetToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RequestReset issues a token and emails it. An unknown email is not an error.
// The email is the whole point of the request, so a failed send is ErrResetEmailFailed.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Infof("[reset] reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if _, err := s.tokens.CreateResetToken(ctx, user.Email, token, time.Now().Add(s.ttl)); err != nil {
		return err
	}

	if result := s.mailer.SendPasswordReset(ctx, user.Email, token); !result.Success {
		return fmt.Errorf("%w: %s", ErrResetEmailFailed, result.Error)
	}
	return nil
}

// ResetPassword consumes a valid token and sets the new password. The token is
// deleted before the password changes, so of two concurrent confirms only one succeeds.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return invalid("Token and password are required")
	}

	record, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return invalid("Invalid or expired reset token")
		}
		return err
	}

	user, err := s.users.FindUserByEmail(ctx, record.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return invalid("Invalid or expired reset token")
		}
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return err
	}
	return s.tokens.DeleteResetTokens(ctx, record.Email)
}

// PurgeExpired drops reset tokens past their expiry.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpiredResetTokens(ctx)
}
