package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"enviroagent/model"
)

const (
	defaultConversationTitle = "New Conversation"
	titlePrefixLen           = 30
)

// ChatService wraps the conversation store with the ownership check the store lacks.
type ChatService struct {
	store   model.ChatStore
	replier Replier
}

func NewChatService(store model.ChatStore, replier Replier) *ChatService {
	return &ChatService{store: store, replier: replier}
}

func (s *ChatService) CreateConversation(ctx context.Context, userID uint, title string) (*model.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultConversationTitle
	}
	return s.store.CreateConversation(ctx, userID, title)
}

func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]model.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// Conversation returns ErrConversationNotFound both for a missing conversation
// and one owned by another user.
func (s *ChatService) Conversation(ctx context.Context, userID, id uint) (*model.Conversation, error) {
	conversation, err := s.store.FindConversation(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conversation.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

func (s *ChatService) Messages(ctx context.Context, userID, conversationID uint) ([]model.Message, error) {
	if _, err := s.Conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

// AppendMessage adds a message after the ownership check. The first user
// message replaces the default title with its prefix.
func (s *ChatService) AppendMessage(ctx context.Context, userID, conversationID uint, content string, role model.Role) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("Message content is required")
	}
	if !role.Valid() {
		return nil, invalid("Unknown message role %q", role)
	}
	conversation, err := s.Conversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	message, err := s.store.AppendMessage(ctx, conversationID, content, role)
	if err != nil {
		return nil, err
	}

	if role == model.RoleUser && conversation.Title == defaultConversationTitle {
		if err := s.store.RenameConversation(ctx, conversationID, titleFrom(content)); err != nil {
			logger.Warnf("[chat] rename conversation %d failed, %s", conversationID, err)
		}
	}
	return message, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	if _, err := s.Conversation(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.store.DeleteConversation(ctx, conversationID)
}

// Goal returns the goal pinned to the conversation by its first reply.
func (s *ChatService) Goal(ctx context.Context, userID, conversationID uint) (*model.ConversationGoal, error) {
	if _, err := s.Conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	goal, err := s.store.FindConversationGoal(ctx, conversationID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrGoalNotFound
	}
	return goal, err
}

// Reply asks the replier for an answer to prompt and appends it as the assistant.
func (s *ChatService) Reply(ctx context.Context, userID, conversationID uint, prompt string) (*model.Message, error) {
	history, err := s.Messages(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	content, err := s.replier.Reply(ctx, history, prompt)
	if err != nil {
		return nil, fmt.Errorf("reply to conversation %d: %w", conversationID, err)
	}
	return s.AppendMessage(ctx, userID, conversationID, content, model.RoleAssistant)
}

func titleFrom(content string) string {
	if utf8.RuneCountInString(content) <= titlePrefixLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:titlePrefixLen]) + "..."
}
