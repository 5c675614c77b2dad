package service

import (
	"context"
	"fmt"
	"time"

	"enviroagent/model"

	"github.com/openai/openai-go"
)

// Replier produces the assistant's answer to the latest user message.
type Replier interface {
	Reply(ctx context.Context, history []model.Message, prompt string) (string, error)
}

const simulatedReply = `I understand your goal: "%s". As your AI agent, I'm ready to help you achieve this. Let me analyze the environment and create a plan for execution. What specific aspects would you like me to focus on first?`

// SimulatedReplier waits a fixed delay and answers from a template. No model is called.
type SimulatedReplier struct {
	Delay time.Duration
}

func (r SimulatedReplier) Reply(ctx context.Context, _ []model.Message, prompt string) (string, error) {
	timer := time.NewTimer(r.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}
	return fmt.Sprintf(simulatedReply, prompt), nil
}

const agentSystemPrompt = "You are EnviroAgent, an AI agent that helps the user shape their environment to reach their goals. Be concise and ask one clarifying question when the goal is vague."

// LLMReplier answers with a chat completion over the conversation history.
type LLMReplier struct {
	client *openai.Client
	model  string
}

func NewLLMReplier(client *openai.Client, model string) *LLMReplier {
	return &LLMReplier{client: client, model: model}
}

func (r *LLMReplier) Reply(ctx context.Context, history []model.Message, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(agentSystemPrompt)}
	for _, m := range history {
		switch m.Role {
		case model.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		case model.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		}
	}
	// history already ends with the prompt when it was persisted first
	if n := len(history); n == 0 || history[n-1].Role != model.RoleUser || history[n-1].Content != prompt {
		messages = append(messages, openai.UserMessage(prompt))
	}

	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(r.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
