package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different key has its own bucket
	if err := limiter.Wait(ctx, "anthropic"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

// waitBriefly fails fast when the limiter would make the caller wait
func waitBriefly(l *Limiter, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, key)
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if err := waitBriefly(limiter, "openai"); err != nil {
			t.Fatalf("expected unlimited limiter to allow call %d: %v", i, err)
		}
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "example.com", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", duration)
	}
}

func TestLimiter_WaitWithDelay_Canceled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.WaitWithDelay(ctx, "example.com", time.Second); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if err := waitBriefly(limiter, "openai"); err != nil {
		t.Fatalf("expected first call to be allowed: %v", err)
	}
	if err := waitBriefly(limiter, "openai"); err == nil {
		t.Error("expected second immediate call to be throttled")
	}
	if err := waitBriefly(limiter, "ollama"); err != nil {
		t.Errorf("expected a different key to be allowed: %v", err)
	}
}

func TestKeyForURL(t *testing.T) {
	key, err := KeyForURL("https://library.municode.com/ca/springfield?x=1")
	if err != nil {
		t.Fatalf("KeyForURL failed: %v", err)
	}
	if key != "library.municode.com" {
		t.Errorf("expected host key, got %s", key)
	}

	if _, err := KeyForURL("://bad"); err == nil {
		t.Error("expected error for malformed URL")
	}
}
