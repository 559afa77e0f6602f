package llm

import (
	"context"
	"sync"
)

// Static is a Provider that answers every request with the same completion.
// It records the requests it receives.
type Static struct {
	Content string
	Err     error

	mu       sync.Mutex
	requests []ChatRequest
}

// Chat implements Provider.
func (s *Static) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return &ChatResponse{Content: s.Content, Model: "static", FinishReason: "stop"}, nil
}

// Name returns "static".
func (s *Static) Name() string { return "static" }

// Requests returns a copy of the requests received so far.
func (s *Static) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
