package web

import (
	"testing"
	"time"
)

func TestKeyedLimiterBurstThenDeny(t *testing.T) {
	limiter := NewKeyedLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("expected request %d within burst to pass", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("expected 4th request to be throttled")
	}
	// Other keys have their own budget.
	if !limiter.Allow("10.0.0.2") {
		t.Error("expected a different key to be unaffected")
	}
}

func TestKeyedLimiterPrune(t *testing.T) {
	limiter := NewKeyedLimiter(1, 1)
	limiter.Allow("a")
	limiter.Allow("b")

	time.Sleep(5 * time.Millisecond)
	if removed := limiter.Prune(time.Millisecond); removed != 2 {
		t.Errorf("expected 2 pruned limiters, got %d", removed)
	}
	if removed := limiter.Prune(time.Hour); removed != 0 {
		t.Errorf("expected nothing to prune, got %d", removed)
	}
}
