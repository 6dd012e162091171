package llm

import (
	"context"
	"testing"
	"time"
)

type countingProvider struct{ calls int }

func (c *countingProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	c.calls++
	return &ChatResponse{Content: "ok"}, nil
}

func (c *countingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	return [][]float32{{0.1}}, nil
}

func TestRateLimitedPassesThroughWhenUnconfigured(t *testing.T) {
	base := &countingProvider{}
	r := NewRateLimited(base, 0, 0)
	if _, err := r.Chat(context.Background(), ChatRequest{}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if base.calls != 1 {
		t.Errorf("expected 1 call, got %d", base.calls)
	}
}

func TestRateLimitedLetsPacedCallsThrough(t *testing.T) {
	base := &countingProvider{}
	r := NewRateLimited(base, 1000, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if _, err := r.Chat(ctx, ChatRequest{}); err != nil {
			t.Fatalf("Chat call %d: %v", i, err)
		}
	}
	if base.calls != 3 {
		t.Errorf("expected 3 calls to go through, got %d", base.calls)
	}
}

func TestRateLimitedRespectsContextCancellation(t *testing.T) {
	base := &countingProvider{}
	r := NewRateLimited(base, 0.001, 0)
	// Drain the initial burst token.
	_, _ = r.Chat(context.Background(), ChatRequest{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Chat(ctx, ChatRequest{}); err == nil {
		t.Fatal("expected context deadline to abort the wait")
	}
}
