package llm

import (
	"context"
	"time"
)

// Client is a text-in, text-out language model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for building a Client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // overrides the provider endpoint; used by tests and proxies
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}

// Supported providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Defaults used when Config leaves a field unset.
const (
	DefaultProvider    = ProviderGemini
	DefaultTimeout     = 20 * time.Second
	DefaultRateLimit   = 60
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.3
)

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}
