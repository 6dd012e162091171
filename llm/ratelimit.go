package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a token-bucket limiter applied ahead of
// every Chat and Embed call, giving the caller backpressure instead of a
// burst of provider-side 429s once the retry/backoff in openai_compat.go
// kicks in.
type RateLimited struct {
	Provider
	chatLimiter  *rate.Limiter
	embedLimiter *rate.Limiter
}

// NewRateLimited wraps p with independent chat and embed limiters.
// A rate (chatRPS or embedRPS) <= 0 disables limiting for that call kind.
func NewRateLimited(p Provider, chatRPS, embedRPS float64) *RateLimited {
	r := &RateLimited{Provider: p}
	if chatRPS > 0 {
		r.chatLimiter = rate.NewLimiter(rate.Limit(chatRPS), 1)
	}
	if embedRPS > 0 {
		r.embedLimiter = rate.NewLimiter(rate.Limit(embedRPS), 1)
	}
	return r
}

func (r *RateLimited) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if r.chatLimiter != nil {
		if err := r.chatLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.Provider.Chat(ctx, req)
}

func (r *RateLimited) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if r.embedLimiter != nil {
		if err := r.embedLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.Provider.Embed(ctx, texts)
}
