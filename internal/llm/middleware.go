package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Waiter blocks until a call identified by key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Recorder observes completed generation calls
type Recorder interface {
	ObserveGeneration(provider, outcome string, duration time.Duration, tokens int)
}

// RateLimited wraps a provider so every Generate waits on a shared limiter
// keyed by provider name.
type RateLimited struct {
	Provider
	waiter Waiter
}

// NewRateLimited returns p throttled by w. A nil waiter returns p unchanged.
func NewRateLimited(p Provider, w Waiter) Provider {
	if w == nil {
		return p
	}
	return &RateLimited{Provider: p, waiter: w}
}

// Generate waits for limiter clearance, then delegates.
func (r *RateLimited) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := r.waiter.Wait(ctx, r.Provider.Name()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Provider.Generate(ctx, req)
}

// Instrumented reports every Generate call to a Recorder
type Instrumented struct {
	Provider
	recorder Recorder
}

// NewInstrumented returns p reporting to rec. A nil recorder returns p unchanged.
func NewInstrumented(p Provider, rec Recorder) Provider {
	if rec == nil {
		return p
	}
	return &Instrumented{Provider: p, recorder: rec}
}

// Generate delegates and records outcome, latency and token usage.
func (i *Instrumented) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	resp, err := i.Provider.Generate(ctx, req)

	tokens := 0
	if resp != nil {
		tokens = resp.TokensUsed
	}
	i.recorder.ObserveGeneration(i.Provider.Name(), Outcome(err), time.Since(start), tokens)
	return resp, err
}

// Outcome classifies a generation error for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}
