package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticLimiter struct {
	allow bool
	wait  time.Duration
}

func (s *staticLimiter) Admit() (bool, time.Duration) {
	return s.allow, s.wait
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	middleware := rateLimitMiddleware(&staticLimiter{wait: 2500 * time.Millisecond})(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fulfill", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After 3, got %q", got)
	}
}

func TestRateLimitMiddlewarePassesWhenLimiterAllows(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(&staticLimiter{allow: true})(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fulfill", nil))

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
}

func TestTokenBucketRejectsOnceBurstIsSpent(t *testing.T) {
	limiter := newTokenBucketLimiter(0.5, 2)

	for i := range 2 {
		if ok, _ := limiter.Admit(); !ok {
			t.Fatalf("request %d should fit in the burst", i)
		}
	}
	ok, wait := limiter.Admit()
	if ok {
		t.Fatalf("expected third request to be rejected")
	}
	if wait <= 0 || wait > 2*time.Second {
		t.Fatalf("expected wait in (0, 2s], got %s", wait)
	}
}

func TestNewTokenBucketLimiterUsesDefaults(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if ok, _ := limiter.Admit(); !ok {
		t.Fatalf("expected first request to be allowed")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		time.Second:             "1",
		1001 * time.Millisecond: "2",
	}
	for wait, want := range cases {
		if got := retryAfterSeconds(wait); got != want {
			t.Fatalf("retryAfterSeconds(%s) = %q, want %q", wait, got, want)
		}
	}
}
