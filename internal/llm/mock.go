package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests. GenerateFunc, when set, handles
// the call outright; otherwise queued Responses are returned in order,
// falling back to Response once the queue drains. Every request is recorded.
type MockClient struct {
	Response     string
	Responses    []string
	Err          error
	Model        string
	GenerateFunc func(ctx context.Context, req Request) (*Response, error)

	mu       sync.Mutex
	Requests []Request
}

func (m *MockClient) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	content := m.Response
	if len(m.Responses) > 0 {
		content = m.Responses[0]
		m.Responses = m.Responses[1:]
	}
	m.mu.Unlock()

	return &Response{Content: content, Model: m.ModelName()}, nil
}

func (m *MockClient) ModelName() string {
	if m.Model != "" {
		return m.Model
	}
	return "mock-model"
}

// RequestCount is safe to call while goroutines are still generating.
func (m *MockClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
