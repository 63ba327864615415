package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticLimiter struct {
	allow bool
}

func (s *staticLimiter) Allow() bool {
	return s.allow
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	middleware := rateLimitMiddleware(&staticLimiter{allow: false}, zap.New(core), http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/format", nil)
	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
	if logs.FilterMessage("request rate limited").Len() != 1 {
		t.Fatalf("expected a rate limit warning")
	}
}

func TestRateLimitMiddlewarePassesWhenLimiterAllows(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(&staticLimiter{allow: true}, zap.NewNop(), http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
}

func TestNewTokenBucketLimiterDisabledWithoutRate(t *testing.T) {
	if limiter := newTokenBucketLimiter(0, 10); limiter != nil {
		t.Fatalf("expected no limiter for zero rate, got %T", limiter)
	}
	if limiter := newTokenBucketLimiter(-1, 10); limiter != nil {
		t.Fatalf("expected no limiter for negative rate, got %T", limiter)
	}
}

func TestNewTokenBucketLimiterDefaultsBurst(t *testing.T) {
	limiter := newTokenBucketLimiter(0.001, 0)
	if limiter == nil {
		t.Fatalf("expected limiter instance")
	}
	if !limiter.Allow() {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow() {
		t.Fatalf("expected burst of one to deny the second request")
	}
}
