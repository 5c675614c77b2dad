package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"enviroagent/model"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost 密码哈希强度
const bcryptCost = 12

type UserService struct {
	store  model.UserStore
	mailer *Mailer
	cost   int
}

// NewUserService hashes with cost, or bcryptCost when cost is 0.
func NewUserService(store model.UserStore, mailer *Mailer, cost int) *UserService {
	return &UserService{store: store, mailer: mailer, cost: hashCost(cost)}
}

func hashCost(cost int) int {
	if cost == 0 {
		return bcryptCost
	}
	return cost
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// isValidEmail 检查给定的电子邮件地址是否有效
func isValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the user and sends the welcome email. A failed email is only logged.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, invalid("Name, email, and password are required")
	}
	if !isValidEmail(email) {
		return nil, invalid("Invalid email address")
	}

	// 唯一性检查
	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, invalid("User already exists")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return nil, invalid("User already exists")
		}
		return nil, err
	}

	if result := s.mailer.SendWelcome(ctx, user.Email, user.Name); !result.Success {
		logger.Warnf("[signup] welcome email for user %d failed, %s", user.ID, result.Error)
	}
	return user, nil
}

// Authenticate checks email and password. Unknown email and wrong password look the same.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) User(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}
