package inference

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
// Responses can be scripted per call or customized via ChatFunc.
type Mock struct {
	// ChatFunc is called when Chat is invoked. If nil, scripted
	// Responses are returned in order (the last repeats).
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Responses are returned in order when ChatFunc is nil.
	Responses []*ChatResponse

	// Err, when set, is returned by every Chat call.
	Err error

	// Tracking
	mu       sync.Mutex
	requests []*ChatRequest
	next     int
}

// NewMock creates a mock that replies with the given texts in order.
func NewMock(texts ...string) *Mock {
	m := &Mock{}
	for _, t := range texts {
		m.Responses = append(m.Responses, &ChatResponse{
			Message:      NewAssistantMessage(t),
			FinishReason: "stop",
		})
	}
	return m
}

// MockWithError creates a mock that fails every request.
func MockWithError(err error) *Mock {
	return &Mock{Err: err}
}

// Chat records the request and returns the next scripted response.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	idx := m.next
	if m.next < len(m.Responses)-1 {
		m.next++
	}
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return &ChatResponse{Message: NewAssistantMessage("ok"), FinishReason: "stop"}, nil
	}
	return m.Responses[idx], nil
}

// Capabilities reports full support.
func (m *Mock) Capabilities() Capabilities {
	return Capabilities{Chat: true, Tools: true}
}

// Health returns Err.
func (m *Mock) Health(ctx context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Requests returns all recorded chat requests.
func (m *Mock) Requests() []*ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (m *Mock) LastRequest() *ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
