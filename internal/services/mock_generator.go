package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockGenerator is a scripted implementation of Generator for testing.
// Replies are served in order; GenerateFunc overrides the script.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req Request) (*Response, error)

	// Track calls for testing
	Calls []Request

	replies []mockReply
	mu      sync.Mutex // protects all fields above
}

type mockReply struct {
	resp *Response
	err  error
}

// Ensure MockGenerator implements Generator interface
var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Calls: make([]Request, 0)}
}

// Reply queues a text reply.
func (m *MockGenerator) Reply(text string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{resp: &Response{Text: text}})
	return m
}

// ReplyJSON queues v encoded as JSON.
func (m *MockGenerator) ReplyJSON(v any) *MockGenerator {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return m.Reply(string(data))
}

// Fail queues an error.
func (m *MockGenerator) Fail(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{err: err})
	return m
}

// Generate records the call and serves the next scripted reply.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	if len(m.replies) == 0 {
		return nil, &Error{Kind: ErrTransport, Provider: "mock", Message: fmt.Sprintf("no scripted reply for call %d", len(m.Calls))}
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	return next.resp, next.err
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// GetCalls returns a copy of the recorded requests in a thread-safe way
func (m *MockGenerator) GetCalls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

// Pending returns how many scripted replies remain.
func (m *MockGenerator) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replies)
}

// Reset clears all call tracking and scripted replies
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]Request, 0)
	m.replies = nil
}
