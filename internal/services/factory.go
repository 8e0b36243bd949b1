package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/adventure-engine/internal/config"
)

// NewGenerator picks the adapter for cfg.Provider.
func NewGenerator(ctx context.Context, cfg *config.Config, apiKey string, logger *slog.Logger) (Generator, error) {
	switch cfg.Provider {
	case "azure":
		return NewOpenAIService(apiKey, cfg.Model, cfg.Endpoint, true, cfg.Timeout, logger), nil
	case "openai":
		return NewOpenAIService(apiKey, cfg.Model, cfg.Endpoint, false, cfg.Timeout, logger), nil
	case "anthropic":
		return NewAnthropicService(apiKey, cfg.Model, cfg.Endpoint, cfg.Timeout, logger), nil
	case "gemini":
		return NewGeminiService(ctx, apiKey, cfg.Model, cfg.Endpoint, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrMissingInput, cfg.Provider)
	}
}
