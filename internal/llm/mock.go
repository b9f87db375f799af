package llm

import (
	"context"
	"strings"
	"sync"
)

// MockClient is a scripted Client for tests.
// Replies are matched by substring of the prompt; the first match wins.
type MockClient struct {
	Err     error
	Default string
	prompts []string
	replies []mockReply
	queue   []string
	mu      sync.Mutex
}

type mockReply struct {
	err      error
	contains string
	reply    string
}

// NewMockClient returns a mock that answers every prompt with defaultReply.
func NewMockClient(defaultReply string) *MockClient {
	return &MockClient{Default: defaultReply}
}

// On registers reply for prompts containing substr.
func (m *MockClient) On(substr, reply string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{contains: substr, reply: reply})
	return m
}

// OnError registers err for prompts containing substr.
func (m *MockClient) OnError(substr string, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{contains: substr, err: err})
	return m
}

// Queue registers replies returned in order, ahead of any scripted match.
func (m *MockClient) Queue(replies ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, replies...)
	return m
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.queue) > 0 {
		reply := m.queue[0]
		m.queue = m.queue[1:]
		return reply, nil
	}
	for _, r := range m.replies {
		if strings.Contains(prompt, r.contains) {
			return r.reply, r.err
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Default, nil
}

// Calls returns how many prompts were received.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
