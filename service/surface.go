package service

import (
	"context"
	"sync"
	"time"

	"enviroagent/model"
)

type SurfaceState string

const (
	StateNoConversation       SurfaceState = "no_conversation_selected"
	StateConversationSelected SurfaceState = "conversation_selected"
	StateAwaitingReply        SurfaceState = "awaiting_reply"
	StateReplyReceived        SurfaceState = "reply_received"
)

// SurfaceSnapshot is the observable state of a Surface.
type SurfaceSnapshot struct {
	State          SurfaceState `json:"state"`
	ConversationID uint         `json:"conversationId,omitempty"`
}

// Surface is one user's chat dashboard: the active conversation and at most
// one reply in flight.
type Surface struct {
	chat         *ChatService
	userID       uint
	replyTimeout time.Duration

	mu       sync.Mutex
	state    SurfaceState
	active   uint
	cancel   context.CancelFunc
	done     chan struct{}
	onChange func(SurfaceSnapshot)
}

func newSurface(chat *ChatService, userID uint, replyTimeout time.Duration) *Surface {
	return &Surface{chat: chat, userID: userID, replyTimeout: replyTimeout, state: StateNoConversation}
}

// OnChange registers fn to be called after every state transition.
func (s *Surface) OnChange(fn func(SurfaceSnapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Surface) Snapshot() SurfaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Surface) snapshotLocked() SurfaceSnapshot {
	snap := SurfaceSnapshot{State: s.state}
	if s.state != StateNoConversation {
		snap.ConversationID = s.active
	}
	return snap
}

// setLocked must be called with mu held; the callback runs after unlock via the returned func.
func (s *Surface) setLocked(state SurfaceState, active uint) func() {
	s.state = state
	s.active = active
	fn, snap := s.onChange, s.snapshotLocked()
	return func() {
		if fn != nil {
			fn(snap)
		}
	}
}

// NewConversation creates a conversation and selects it.
func (s *Surface) NewConversation(ctx context.Context, title string) (*model.Conversation, error) {
	s.mu.Lock()
	if s.state == StateAwaitingReply {
		s.mu.Unlock()
		return nil, ErrReplyPending
	}
	s.mu.Unlock()

	conversation, err := s.chat.CreateConversation(ctx, s.userID, title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	notify := s.setLocked(StateConversationSelected, conversation.ID)
	s.mu.Unlock()
	notify()
	return conversation, nil
}

// Select makes an owned conversation active.
func (s *Surface) Select(ctx context.Context, conversationID uint) error {
	if _, err := s.chat.Conversation(ctx, s.userID, conversationID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateAwaitingReply {
		pending := s.active
		s.mu.Unlock()
		if pending == conversationID {
			return nil
		}
		return ErrReplyPending
	}
	notify := s.setLocked(StateConversationSelected, conversationID)
	s.mu.Unlock()
	notify()
	return nil
}

// Send appends the user message to the active conversation and starts the reply.
func (s *Surface) Send(ctx context.Context, content string) (*model.Message, error) {
	s.mu.Lock()
	switch s.state {
	case StateNoConversation:
		s.mu.Unlock()
		return nil, ErrNoConversation
	case StateAwaitingReply:
		s.mu.Unlock()
		return nil, ErrReplyPending
	}
	conversationID := s.active
	// claim the slot before releasing the lock so a concurrent Send sees it
	s.state = StateAwaitingReply
	s.mu.Unlock()

	message, err := s.chat.AppendMessage(ctx, s.userID, conversationID, content, model.RoleUser)
	if err != nil {
		s.mu.Lock()
		// Close or Delete may have moved on while the message was being stored
		if s.state == StateAwaitingReply && s.active == conversationID {
			s.state = StateConversationSelected
		}
		s.mu.Unlock()
		return nil, err
	}

	replyCtx, cancel := context.WithTimeout(context.Background(), s.replyTimeout)
	done := make(chan struct{})

	s.mu.Lock()
	if s.state != StateAwaitingReply || s.active != conversationID {
		// closed or deleted while the message was being stored
		s.mu.Unlock()
		cancel()
		return message, nil
	}
	s.cancel = cancel
	s.done = done
	notify := s.setLocked(StateAwaitingReply, conversationID)
	s.mu.Unlock()
	notify()

	go s.awaitReply(replyCtx, cancel, done, conversationID, message.Content)
	return message, nil
}

func (s *Surface) awaitReply(ctx context.Context, cancel context.CancelFunc, done chan struct{}, conversationID uint, prompt string) {
	defer close(done)
	defer cancel()

	reply, err := s.chat.Reply(ctx, s.userID, conversationID, prompt)
	if err != nil {
		logger.Warnf("[chat] reply for conversation %d failed, %s", conversationID, err)
	}

	s.mu.Lock()
	if s.done != done {
		// surface was closed or the conversation deleted meanwhile
		s.mu.Unlock()
		return
	}
	// done stays set so Wait returns only after the notifications below
	s.cancel = nil
	var notifyReceived func()
	if reply != nil {
		notifyReceived = s.setLocked(StateReplyReceived, conversationID)
	}
	notifySelected := s.setLocked(StateConversationSelected, conversationID)
	s.mu.Unlock()

	if notifyReceived != nil {
		notifyReceived()
	}
	notifySelected()
}

// Wait blocks until no reply is in flight or ctx is done.
func (s *Surface) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delete removes an owned conversation; deleting the active one clears the selection.
func (s *Surface) Delete(ctx context.Context, conversationID uint) error {
	if err := s.chat.DeleteConversation(ctx, s.userID, conversationID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateNoConversation || s.active != conversationID {
		s.mu.Unlock()
		return nil
	}
	s.abandonLocked()
	notify := s.setLocked(StateNoConversation, 0)
	s.mu.Unlock()
	notify()
	return nil
}

// Close cancels a pending reply, like navigating away from the dashboard.
func (s *Surface) Close() {
	s.mu.Lock()
	s.abandonLocked()
	notify := s.setLocked(StateNoConversation, 0)
	s.mu.Unlock()
	notify()
}

func (s *Surface) abandonLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = nil
	s.done = nil
}

// SurfaceRegistry holds one Surface per signed-in user.
type SurfaceRegistry struct {
	chat         *ChatService
	replyTimeout time.Duration

	mu       sync.Mutex
	surfaces map[uint]*Surface
}

func NewSurfaceRegistry(chat *ChatService, replyTimeout time.Duration) *SurfaceRegistry {
	return &SurfaceRegistry{chat: chat, replyTimeout: replyTimeout, surfaces: make(map[uint]*Surface)}
}

func (r *SurfaceRegistry) Get(userID uint) *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	surface, ok := r.surfaces[userID]
	if !ok {
		surface = newSurface(r.chat, userID, r.replyTimeout)
		r.surfaces[userID] = surface
	}
	return surface
}

// Close drops the user's surface and cancels its pending reply.
func (r *SurfaceRegistry) Close(userID uint) {
	r.mu.Lock()
	surface, ok := r.surfaces[userID]
	delete(r.surfaces, userID)
	r.mu.Unlock()
	if ok {
		surface.Close()
	}
}

// Shutdown waits for pending replies until ctx is done, then closes every surface.
func (r *SurfaceRegistry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	surfaces := make([]*Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		surfaces = append(surfaces, s)
	}
	r.surfaces = make(map[uint]*Surface)
	r.mu.Unlock()

	var err error
	for _, s := range surfaces {
		if werr := s.Wait(ctx); werr != nil && err == nil {
			err = werr
		}
		s.Close()
	}
	return err
}
