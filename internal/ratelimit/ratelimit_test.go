package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinLimit(t *testing.T) {
	limiter := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !limiter.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("request over the limit should be denied")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := New(1, time.Minute)
	if !limiter.Allow("a") {
		t.Fatalf("first request for a should be allowed")
	}
	if !limiter.Allow("b") {
		t.Fatalf("first request for b should be allowed")
	}
	if limiter.Allow("a") {
		t.Fatalf("second request for a should be denied")
	}
}

func TestLimiterWindowReset(t *testing.T) {
	limiter := New(1, time.Minute)
	current := time.Now()
	limiter.now = func() time.Time { return current }

	if !limiter.Allow("a") {
		t.Fatalf("first request should be allowed")
	}
	if limiter.Allow("a") {
		t.Fatalf("second request in window should be denied")
	}

	current = current.Add(time.Minute + time.Second)
	if !limiter.Allow("a") {
		t.Fatalf("request after window reset should be allowed")
	}
}

func TestRetryAfter(t *testing.T) {
	limiter := New(1, time.Minute)
	current := time.Now()
	limiter.now = func() time.Time { return current }

	limiter.Allow("a")
	current = current.Add(20 * time.Second)

	retryAfter := limiter.RetryAfter("a")
	if retryAfter != 40*time.Second {
		t.Fatalf("expected retry after 40s, got %s", retryAfter)
	}
	if limiter.RetryAfter("unknown") != 0 {
		t.Fatalf("unknown key should have no wait")
	}
}
