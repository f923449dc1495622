package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestAllow_WithinBurst(t *testing.T) {
	limiter := New(10, 5)

	for i := 0; i < 5; i++ {
		if !limiter.Allow() {
			t.Fatalf("Request %d should be allowed within burst", i)
		}
	}

	if limiter.Allow() {
		t.Fatal("Request beyond burst should be rejected")
	}
}

func TestAllow_Refills(t *testing.T) {
	limiter := New(100, 1)

	if !limiter.Allow() {
		t.Fatal("First request should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("Second immediate request should be rejected")
	}

	// 100 req/s refills a token within 10ms.
	time.Sleep(25 * time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("Request after refill should be allowed")
	}
}

func TestAllow_Unlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10_000; i++ {
		if !limiter.Allow() {
			t.Fatalf("Unlimited limiter rejected request %d", i)
		}
	}
}

func TestWait_RespectsContext(t *testing.T) {
	limiter := New(1, 1)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait should fail when the context expires before a token is available")
	}
}
