package platform

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// InitLLMClient returns nil when no API key is configured; callers fall back to simulated replies.
func InitLLMClient(cfg LLMConfig) *openai.Client {
	if cfg.APIKey == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewClient(opts...)
}
