package ai

import (
	"context"
	"fmt"

	"todochat/internal/config"
)

// NewEngine builds the client for the configured provider.
func NewEngine(ctx context.Context, cfg config.LLMConfig) (Engine, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
