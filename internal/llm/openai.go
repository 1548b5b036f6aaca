// Package llm constructs the process-scoped chat model client. The client is
// built once at startup and passed by reference into the orchestrator, so
// tests can substitute a fake model.
package llm

import (
	"context"
	"fmt"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"taskflow/internal/config"
)

// NewChatModel creates the OpenAI chat model from config.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	maxTokens := 1024
	temperature := float32(0.7)

	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:              cfg.OpenAIAPIKey,
		Model:               cfg.OpenAIModel,
		MaxCompletionTokens: &maxTokens,
		Temperature:         &temperature,
	}
	if cfg.OpenAIBaseURL != "" {
		modelConfig.BaseURL = cfg.OpenAIBaseURL
	}
	if cfg.OpenAITimeout > 0 {
		modelConfig.Timeout = time.Duration(cfg.OpenAITimeout) * time.Second
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}
