package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"enviroagent/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []SurfaceState
}

func (r *stateRecorder) record(s SurfaceSnapshot) {
	r.mu.Lock()
	r.states = append(r.states, s.State)
	r.mu.Unlock()
}

func (r *stateRecorder) all() []SurfaceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SurfaceState(nil), r.states...)
}

func waitReply(t *testing.T, s *Surface) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestSurfaceReplyCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	registry := NewSurfaceRegistry(env.chat, time.Minute)
	surface := registry.Get(user.ID)
	recorder := &stateRecorder{}
	surface.OnChange(recorder.record)

	assert.Equal(t, SurfaceSnapshot{State: StateNoConversation}, surface.Snapshot())
	_, err := surface.Send(ctx, "hello")
	assert.ErrorIs(t, err, ErrNoConversation)

	conversation, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, SurfaceSnapshot{State: StateConversationSelected, ConversationID: conversation.ID}, surface.Snapshot())

	message, err := surface.Send(ctx, "Plan my week")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, message.Role)
	assert.Equal(t, StateAwaitingReply, surface.Snapshot().State)

	_, err = surface.Send(ctx, "and another thing")
	assert.ErrorIs(t, err, ErrReplyPending)

	waitReply(t, surface)
	assert.Equal(t, SurfaceSnapshot{State: StateConversationSelected, ConversationID: conversation.ID}, surface.Snapshot())
	assert.Equal(t, []SurfaceState{
		StateConversationSelected,
		StateAwaitingReply,
		StateReplyReceived,
		StateConversationSelected,
	}, recorder.all())

	messages, err := env.chat.Messages(ctx, user.ID, conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Plan my week", messages[0].Content)
	assert.Equal(t, model.RoleAssistant, messages[1].Role)
	assert.Contains(t, messages[1].Content, `"Plan my week"`)
}

func TestSurfaceSelect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	other := env.signup(t, "Bob", "bob@example.com")
	surface := NewSurfaceRegistry(env.chat, time.Minute).Get(user.ID)

	mine, err := env.chat.CreateConversation(ctx, user.ID, "")
	require.NoError(t, err)
	theirs, err := env.chat.CreateConversation(ctx, other.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, surface.Select(ctx, theirs.ID), ErrConversationNotFound)
	assert.Equal(t, StateNoConversation, surface.Snapshot().State)

	require.NoError(t, surface.Select(ctx, mine.ID))
	assert.Equal(t, SurfaceSnapshot{State: StateConversationSelected, ConversationID: mine.ID}, surface.Snapshot())
}

func TestSurfaceSelectWhileAwaiting(t *testing.T) {
	env := newTestEnv(t)
	env.chat = NewChatService(env.store, SimulatedReplier{Delay: time.Hour})
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	surface := NewSurfaceRegistry(env.chat, time.Minute).Get(user.ID)
	defer surface.Close()

	first, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)
	second, err := env.chat.CreateConversation(ctx, user.ID, "")
	require.NoError(t, err)

	_, err = surface.Send(ctx, "hello")
	require.NoError(t, err)

	assert.NoError(t, surface.Select(ctx, first.ID), "reselecting the pending conversation is a no-op")
	assert.ErrorIs(t, surface.Select(ctx, second.ID), ErrReplyPending)
	_, err = surface.NewConversation(ctx, "")
	assert.ErrorIs(t, err, ErrReplyPending)
}

func TestSurfaceCloseCancelsReply(t *testing.T) {
	env := newTestEnv(t)
	env.chat = NewChatService(env.store, SimulatedReplier{Delay: time.Hour})
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	registry := NewSurfaceRegistry(env.chat, time.Minute)
	surface := registry.Get(user.ID)

	conversation, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)
	_, err = surface.Send(ctx, "hello")
	require.NoError(t, err)

	registry.Close(user.ID)
	assert.Equal(t, StateNoConversation, surface.Snapshot().State)
	assert.NoError(t, surface.Wait(ctx))

	fresh := registry.Get(user.ID)
	assert.NotSame(t, surface, fresh)
	require.NoError(t, fresh.Select(ctx, conversation.ID))
	assert.Equal(t, StateConversationSelected, fresh.Snapshot().State)
}

func TestSurfaceDeleteActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	surface := NewSurfaceRegistry(env.chat, time.Minute).Get(user.ID)

	keep, err := env.chat.CreateConversation(ctx, user.ID, "keep")
	require.NoError(t, err)
	active, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)

	require.NoError(t, surface.Delete(ctx, keep.ID))
	assert.Equal(t, SurfaceSnapshot{State: StateConversationSelected, ConversationID: active.ID}, surface.Snapshot())

	require.NoError(t, surface.Delete(ctx, active.ID))
	assert.Equal(t, SurfaceSnapshot{State: StateNoConversation}, surface.Snapshot())

	assert.ErrorIs(t, surface.Delete(ctx, active.ID), ErrConversationNotFound)
}

func TestSurfaceRegistryIsPerUser(t *testing.T) {
	env := newTestEnv(t)
	registry := NewSurfaceRegistry(env.chat, time.Minute)

	assert.Same(t, registry.Get(1), registry.Get(1))
	assert.NotSame(t, registry.Get(1), registry.Get(2))
}

// stallingStore holds AppendMessage until released, then fails it.
type stallingStore struct {
	*model.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) AppendMessage(ctx context.Context, conversationID uint, content string, role model.Role) (*model.Message, error) {
	close(s.entered)
	<-s.release
	return nil, errors.New("disk full")
}

func TestSurfaceFailedSendAfterClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	store := &stallingStore{MemoryStore: env.store, entered: make(chan struct{}), release: make(chan struct{})}
	registry := NewSurfaceRegistry(NewChatService(store, SimulatedReplier{}), time.Minute)
	surface := registry.Get(user.ID)

	_, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)

	sendErr := make(chan error, 1)
	go func() {
		_, err := surface.Send(ctx, "hello")
		sendErr <- err
	}()
	<-store.entered
	surface.Close()
	close(store.release)

	assert.Error(t, <-sendErr)
	assert.Equal(t, SurfaceSnapshot{State: StateNoConversation}, surface.Snapshot())
}

func TestSurfaceFailedSendRestoresSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	store := &stallingStore{MemoryStore: env.store, entered: make(chan struct{}), release: make(chan struct{})}
	close(store.release)
	surface := NewSurfaceRegistry(NewChatService(store, SimulatedReplier{}), time.Minute).Get(user.ID)

	conversation, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)

	_, err = surface.Send(ctx, "hello")
	assert.Error(t, err)
	assert.Equal(t, SurfaceSnapshot{State: StateConversationSelected, ConversationID: conversation.ID}, surface.Snapshot())
}

func TestRegistryShutdownGivesUpAtDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")
	registry := NewSurfaceRegistry(NewChatService(env.store, SimulatedReplier{Delay: time.Hour}), time.Minute)
	surface := registry.Get(user.ID)

	_, err := surface.NewConversation(ctx, "")
	require.NoError(t, err)
	_, err = surface.Send(ctx, "hello")
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, registry.Shutdown(shutdownCtx), context.DeadlineExceeded)
	assert.Equal(t, SurfaceSnapshot{State: StateNoConversation}, surface.Snapshot())
	assert.NotSame(t, surface, registry.Get(user.ID))
}
