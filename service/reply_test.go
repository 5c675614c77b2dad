package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"enviroagent/model"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedReplier(t *testing.T) {
	reply, err := SimulatedReplier{}.Reply(context.Background(), nil, "grow tomatoes")
	require.NoError(t, err)
	assert.Contains(t, reply, `I understand your goal: "grow tomatoes"`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SimulatedReplier{Delay: time.Hour}.Reply(ctx, nil, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLLMReplier(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Start with a plan."}}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test-key"), option.WithBaseURL(srv.URL+"/"))
	replier := NewLLMReplier(client, "test-model")

	history := []model.Message{
		{Role: model.RoleUser, Content: "Hi"},
		{Role: model.RoleAssistant, Content: "Hello"},
		{Role: model.RoleUser, Content: "Plan my day"},
	}
	reply, err := replier.Reply(context.Background(), history, "Plan my day")
	require.NoError(t, err)
	assert.Equal(t, "Start with a plan.", reply)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 4, "system prompt plus history, the prompt is not repeated")
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Contains(t, string(got.Messages[3].Content), "Plan my day")
}
