package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
)

var _ Client = (*Gateway)(nil)

// ErrUnusableReply marks a reply that a ReplyCheck rejected.
var ErrUnusableReply = errors.New("unusable model reply")

// ReplyCheck reports whether a reply can be used by the caller.
type ReplyCheck func(reply string) error

type checkedGenerator interface {
	generateChecked(ctx context.Context, prompt string, check ReplyCheck) (string, error)
}

// GenerateChecked sends prompt through client and runs check on the reply.
// A rejected reply is returned alongside an ErrUnusableReply error and is never cached.
func GenerateChecked(ctx context.Context, client Client, prompt string, check ReplyCheck) (string, error) {
	if c, ok := client.(checkedGenerator); ok {
		return c.generateChecked(ctx, prompt, check)
	}

	reply, err := client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := check(reply); err != nil {
		return reply, fmt.Errorf("%w: %w", ErrUnusableReply, err)
	}
	return reply, nil
}

// Gateway wraps a provider with the limits every outbound call must respect:
// a per-call timeout, a shared rate limit and an optional reply cache.
// It never retries; callers decide how to degrade.
type Gateway struct {
	provider Client
	limiter  *rateLimiter
	cache    *responseCache
	logger   *slog.Logger
	timeout  time.Duration
}

// NewGateway wraps provider using the limits in cfg.
func NewGateway(provider Client, cfg Config, logger *slog.Logger) *Gateway {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		provider: provider,
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   logger,
		timeout:  cfg.Timeout,
	}
	if cfg.CacheTTL > 0 {
		g.cache = newResponseCache(cfg.CacheTTL)
	}
	return g
}

// Generate sends prompt to the provider under the gateway's limits.
// Any successful reply may be cached.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, nil)
}

func (g *Gateway) generateChecked(ctx context.Context, prompt string, check ReplyCheck) (string, error) {
	return g.generate(ctx, prompt, check)
}

func (g *Gateway) generate(ctx context.Context, prompt string, check ReplyCheck) (string, error) {
	if g.cache != nil {
		if reply, ok := g.cache.get(prompt); ok && (check == nil || check(reply) == nil) {
			g.logger.Debug("Using cached LLM reply", "prompt_bytes", len(prompt))
			return reply, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	reply, err := g.provider.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: timed out after %s: %w", common.ErrAIUnavailable, g.timeout, err)
		}
		g.logger.Warn("LLM request failed",
			"error", err,
			"duration", time.Since(start))
		return "", err
	}

	g.logger.Debug("LLM request completed",
		"duration", time.Since(start),
		"reply_bytes", len(reply))

	if check != nil {
		if err := check(reply); err != nil {
			return reply, fmt.Errorf("%w: %w", ErrUnusableReply, err)
		}
	}

	if g.cache != nil {
		g.cache.set(prompt, reply)
	}
	return reply, nil
}

// Close releases the provider and stops background work.
func (g *Gateway) Close() error {
	if g.cache != nil {
		g.cache.Close()
	}
	if closer, ok := g.provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
