package model

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the demo Store: process-local maps behind one mutex.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID        uint
	users         map[uint]*User
	resetTokens   map[uint]*PasswordResetToken
	conversations map[uint]*Conversation
	messages      map[uint][]Message
	goals         map[uint]*ConversationGoal
	contacts      []Contact
	subscriptions map[string]*NewsletterSubscription
	revoked       map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[uint]*User),
		resetTokens:   make(map[uint]*PasswordResetToken),
		conversations: make(map[uint]*Conversation),
		messages:      make(map[uint][]Message),
		goals:         make(map[uint]*ConversationGoal),
		subscriptions: make(map[string]*NewsletterSubscription),
		revoked:       make(map[string]time.Time),
	}
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByID(_ context.Context, id uint) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := *u
	return &user, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, name, email, hashedPassword string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}
	now := m.now()
	u := &User{ID: m.id(), Name: name, Email: email, Password: hashedPassword, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	user := *u
	return &user, nil
}

func (m *MemoryStore) UpdateUserPassword(_ context.Context, id uint, hashedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Password = hashedPassword
	u.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) CreateResetToken(_ context.Context, email, token string, expires time.Time) (*PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteResetTokensLocked(email)
	t := &PasswordResetToken{ID: m.id(), Email: email, Token: token, Expires: expires.UTC(), CreatedAt: m.now()}
	m.resetTokens[t.ID] = t
	record := *t
	return &record, nil
}

func (m *MemoryStore) FindValidResetToken(_ context.Context, token string) (*PasswordResetToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	for _, t := range m.resetTokens {
		if t.Token == token && t.Expires.After(now) {
			record := *t
			return &record, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ConsumeResetToken(_ context.Context, token string) (*PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, t := range m.resetTokens {
		if t.Token == token && t.Expires.After(now) {
			delete(m.resetTokens, id)
			record := *t
			return &record, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeleteResetTokens(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteResetTokensLocked(email)
	return nil
}

func (m *MemoryStore) deleteResetTokensLocked(email string) {
	for id, t := range m.resetTokens {
		if t.Email == email {
			delete(m.resetTokens, id)
		}
	}
}

func (m *MemoryStore) DeleteExpiredResetTokens(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, t := range m.resetTokens {
		if !t.Expires.After(now) {
			delete(m.resetTokens, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateConversation(_ context.Context, userID uint, title string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	c := &Conversation{ID: m.id(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	m.conversations[c.ID] = c
	conversation := *c
	return &conversation, nil
}

func (m *MemoryStore) FindConversation(_ context.Context, id uint) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	conversation := *c
	return &conversation, nil
}

func (m *MemoryStore) ListConversations(_ context.Context, userID uint) ([]Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conversations := make([]Conversation, 0)
	for _, c := range m.conversations {
		if c.UserID == userID {
			conversations = append(conversations, *c)
		}
	}
	sort.Slice(conversations, func(i, j int) bool {
		if !conversations[i].CreatedAt.Equal(conversations[j].CreatedAt) {
			return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
		}
		return conversations[i].ID > conversations[j].ID
	})
	return conversations, nil
}

func (m *MemoryStore) RenameConversation(_ context.Context, id uint, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.Title = title
	return nil
}

func (m *MemoryStore) DeleteConversation(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	delete(m.goals, id)
	return nil
}

// AppendMessage does not require the conversation to exist, matching the relational store.
func (m *MemoryStore) AppendMessage(_ context.Context, conversationID uint, content string, role Role) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := Message{ID: m.id(), ConversationID: conversationID, Role: role, Content: content, CreatedAt: m.now()}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	if c, ok := m.conversations[conversationID]; ok && c.UpdatedAt.Before(msg.CreatedAt) {
		c.UpdatedAt = msg.CreatedAt
	}
	return &msg, nil
}

func (m *MemoryStore) ListMessages(_ context.Context, conversationID uint) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	messages := make([]Message, len(m.messages[conversationID]))
	copy(messages, m.messages[conversationID])
	return messages, nil
}

func (m *MemoryStore) FindConversationGoal(_ context.Context, conversationID uint) (*ConversationGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	goal := *g
	return &goal, nil
}

func (m *MemoryStore) SaveConversationGoal(_ context.Context, conversationID uint, description string, profile GoalProfile) (*ConversationGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	g, ok := m.goals[conversationID]
	if ok {
		g.Structured = profile
		g.UpdatedAt = now
	} else {
		g = &ConversationGoal{ConversationID: conversationID, InitialDescription: description, Structured: profile, CreatedAt: now, UpdatedAt: now}
		m.goals[conversationID] = g
	}
	goal := *g
	return &goal, nil
}

func (m *MemoryStore) CreateContact(_ context.Context, name, email, subject, message string) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Contact{ID: m.id(), Name: name, Email: email, Subject: subject, Message: message, CreatedAt: m.now()}
	m.contacts = append(m.contacts, c)
	return &c, nil
}

func (m *MemoryStore) FindSubscription(_ context.Context, email string) (*NewsletterSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscriptions[email]
	if !ok {
		return nil, ErrNotFound
	}
	subscription := *s
	return &subscription, nil
}

func (m *MemoryStore) CreateSubscription(_ context.Context, email string) (*NewsletterSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[email]; ok {
		return nil, ErrDuplicateEmail
	}
	s := &NewsletterSubscription{ID: m.id(), Email: email, CreatedAt: m.now()}
	m.subscriptions[email] = s
	subscription := *s
	return &subscription, nil
}

func (m *MemoryStore) RevokeSession(_ context.Context, accessUUID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[accessUUID] = expiresAt
	return nil
}

func (m *MemoryStore) IsSessionRevoked(_ context.Context, accessUUID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[accessUUID]
	return ok, nil
}

func (m *MemoryStore) DeleteExpiredRevocations(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
			n++
		}
	}
	return n, nil
}

var _ Store = (*MemoryStore)(nil)
