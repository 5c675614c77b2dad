package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"enviroagent/model"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*Envelope
	err  error
}

func (f *fakeSender) Send(_ context.Context, e *Envelope) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, e)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeSender) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) last(t *testing.T) *Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no email was sent")
	return f.sent[len(f.sent)-1]
}

var resetTokenPattern = regexp.MustCompile(`token=([0-9a-f]{32})`)

func (f *fakeSender) lastResetToken(t *testing.T) string {
	t.Helper()
	m := resetTokenPattern.FindStringSubmatch(f.last(t).HTML)
	require.Len(t, m, 2, "reset email carries no token")
	return m[1]
}

var errSendFailed = errors.New("provider unavailable")

type testEnv struct {
	store      *model.MemoryStore
	sender     *fakeSender
	mailer     *Mailer
	users      *UserService
	resets     *PasswordResetService
	contacts   *ContactService
	newsletter *NewsletterService
	sessions   *SessionService
	chat       *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := model.NewMemoryStore()
	sender := &fakeSender{}
	mailer := NewMailer(sender, MailSettings{
		From:          "EnviroAgent <no-reply@enviroagent.org>",
		SupportEmail:  "support@enviroagent.org",
		TestRecipient: "tester@enviroagent.org",
		BaseURL:       "http://localhost:3000",
	})

	users := NewUserService(store, mailer, bcrypt.MinCost)
	resets := NewPasswordResetService(store, store, mailer, bcrypt.MinCost)

	return &testEnv{
		store:      store,
		sender:     sender,
		mailer:     mailer,
		users:      users,
		resets:     resets,
		contacts:   NewContactService(store, mailer),
		newsletter: NewNewsletterService(store, mailer),
		sessions:   NewSessionService(NewTokenService("test-secret", time.Hour), store, store),
		chat:       NewChatService(store, SimulatedReplier{Delay: 10 * time.Millisecond}),
	}
}

func (e *testEnv) signup(t *testing.T, name, email string) *model.User {
	t.Helper()
	user, err := e.users.Signup(context.Background(), SignupInput{Name: name, Email: email, Password: "secret-password"})
	require.NoError(t, err)
	return user
}

func requireValidation(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	msg, ok := IsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.Equal(t, message, msg)
}
