package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NewClient builds the configured provider behind a Gateway.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Gateway, error) {
	cfg = cfg.withDefaults()

	var (
		provider Client
		err      error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "google":
		provider, err = newGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		provider, err = newOpenAIClient(cfg)
	case ProviderAnthropic:
		provider, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return NewGateway(provider, cfg, logger), nil
}
