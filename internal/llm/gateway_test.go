package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowClient struct {
	delay time.Duration
}

func (s slowClient) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type closingClient struct {
	*MockClient
	closed bool
}

func (c *closingClient) Close() error {
	c.closed = true
	return nil
}

func TestGateway_AppliesTimeout(t *testing.T) {
	g := NewGateway(slowClient{delay: time.Second}, Config{Timeout: 20 * time.Millisecond}, nil)
	defer func() { _ = g.Close() }()

	start := time.Now()
	_, err := g.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAIUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGateway_PassesThroughErrors(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockClient("")
	mock.Err = boom

	g := NewGateway(mock, Config{}, nil)
	_, err := g.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrAIUnavailable)
}

func TestGateway_CachesReplies(t *testing.T) {
	mock := NewMockClient("Shopping")
	g := NewGateway(mock, Config{CacheTTL: time.Minute}, nil)
	defer func() { _ = g.Close() }()

	for range 3 {
		reply, err := g.Generate(context.Background(), "same prompt")
		require.NoError(t, err)
		assert.Equal(t, "Shopping", reply)
	}
	assert.Equal(t, 1, mock.Calls())

	_, err := g.Generate(context.Background(), "different prompt")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())
}

func TestGateway_NoCacheByDefault(t *testing.T) {
	mock := NewMockClient("ok")
	g := NewGateway(mock, Config{}, nil)

	_, _ = g.Generate(context.Background(), "p")
	_, _ = g.Generate(context.Background(), "p")
	assert.Equal(t, 2, mock.Calls())
}

func TestGateway_CloseClosesProvider(t *testing.T) {
	provider := &closingClient{MockClient: NewMockClient("")}
	g := NewGateway(provider, Config{CacheTTL: time.Minute}, nil)
	require.NoError(t, g.Close())
	assert.True(t, provider.closed)
}

func TestNewClient_Providers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "k"}},
		{name: "anthropic upper case", cfg: Config{Provider: "Anthropic", APIKey: "k"}},
		{name: "gemini without key", cfg: Config{Provider: "gemini"}, wantErr: true},
		{name: "unknown provider", cfg: Config{Provider: "llama", APIKey: "k"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
			assert.NoError(t, client.Close())
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.last = now

	assert.True(t, rl.tryAcquire())
	assert.True(t, rl.tryAcquire())
	assert.False(t, rl.tryAcquire())

	delay, ok := rl.reserve()
	assert.False(t, ok)
	assert.InDelta(t, float64(30*time.Second), float64(delay), float64(time.Millisecond))

	now = now.Add(31 * time.Second)
	assert.True(t, rl.tryAcquire())
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := newRateLimiter(1)
	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResponseCache_Expiry(t *testing.T) {
	cache := newResponseCache(10 * time.Millisecond)
	defer cache.Close()

	cache.set("p", "r")
	got, ok := cache.get("p")
	assert.True(t, ok)
	assert.Equal(t, "r", got)
	assert.Equal(t, 1, cache.size())

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.get("p")
	assert.False(t, ok)
}

func TestGenerateChecked_RejectedReplyIsNotCached(t *testing.T) {
	mock := NewMockClient("").Queue("garbage", "good")
	g := NewGateway(mock, Config{CacheTTL: time.Hour}, nil)
	defer func() { _ = g.Close() }()

	check := func(reply string) error {
		if reply != "good" {
			return errors.New("bad reply")
		}
		return nil
	}

	reply, err := GenerateChecked(context.Background(), g, "prompt", check)
	require.ErrorIs(t, err, ErrUnusableReply)
	assert.Equal(t, "garbage", reply)

	reply, err = GenerateChecked(context.Background(), g, "prompt", check)
	require.NoError(t, err)
	assert.Equal(t, "good", reply)
	assert.Equal(t, 2, mock.Calls())

	reply, err = GenerateChecked(context.Background(), g, "prompt", check)
	require.NoError(t, err)
	assert.Equal(t, "good", reply)
	assert.Equal(t, 2, mock.Calls(), "accepted reply is served from cache")
}

func TestGenerateChecked_PlainClient(t *testing.T) {
	_, err := GenerateChecked(context.Background(), NewMockClient("nope"), "p", func(string) error {
		return errors.New("rejected")
	})
	assert.ErrorIs(t, err, ErrUnusableReply)

	down := errors.New("down")
	_, err = GenerateChecked(context.Background(), NewMockClient("").OnError("p", down), "p", func(string) error {
		return nil
	})
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, ErrUnusableReply)
}
