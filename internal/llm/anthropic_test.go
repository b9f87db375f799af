package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := newAnthropicClient(Config{}.withDefaults())
	require.Error(t, err)

	client, err := newAnthropicClient(Config{APIKey: "k"}.withDefaults())
	require.NoError(t, err)
	assert.Equal(t, anthropicBaseURL, client.baseURL)
}

func TestAnthropicClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body.Model)
		assert.Equal(t, DefaultMaxTokens, body.MaxTokens)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"category\":\"Shopping\",\"confidence\":80}"}]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", Model: "claude-test", BaseURL: server.URL}.withDefaults())
	require.NoError(t, err)

	reply, err := client.Generate(context.Background(), "classify")
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"Shopping","confidence":80}`, reply)
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL}.withDefaults())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "no content")
}
