// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestInMemoryRateLimiter(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("allows up to capacity then blocks", func(t *testing.T) {
		limiter := newInMemoryRateLimiter()

		for i := 0; i < 3; i++ {
			decision := limiter.Allow("203.0.113.9", 3, now)
			if !decision.Allowed {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}

		decision := limiter.Allow("203.0.113.9", 3, now)
		if decision.Allowed {
			t.Fatal("fourth request within the same instant should be blocked")
		}
		if decision.RetryAfterSeconds < 1 {
			t.Fatalf("expected retry-after of at least 1s, got %d", decision.RetryAfterSeconds)
		}
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter := newInMemoryRateLimiter()

		for i := 0; i < 60; i++ {
			limiter.Allow("203.0.113.9", 60, now)
		}
		if limiter.Allow("203.0.113.9", 60, now).Allowed {
			t.Fatal("bucket should be empty")
		}

		decision := limiter.Allow("203.0.113.9", 60, now.Add(2*time.Second))
		if !decision.Allowed {
			t.Fatal("expected a token after refill")
		}
	})

	t.Run("keys are isolated", func(t *testing.T) {
		limiter := newInMemoryRateLimiter()

		if !limiter.Allow("203.0.113.9", 1, now).Allowed {
			t.Fatal("first key should be allowed")
		}
		if limiter.Allow("203.0.113.9", 1, now).Allowed {
			t.Fatal("first key should now be exhausted")
		}
		if !limiter.Allow("198.51.100.4", 1, now).Allowed {
			t.Fatal("second key must not share the first key's bucket")
		}
	})

	t.Run("zero limit degrades to one per minute", func(t *testing.T) {
		limiter := newInMemoryRateLimiter()

		if !limiter.Allow("203.0.113.9", 0, now).Allowed {
			t.Fatal("expected a single token")
		}
		if limiter.Allow("203.0.113.9", 0, now).Allowed {
			t.Fatal("expected the bucket to be exhausted")
		}
	})
}

func TestClientRateLimit(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := ClientRateLimit(2)(next)

	request := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/track/view", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := request("203.0.113.9:51234"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	if rec := request("203.0.113.9:51235"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected second request to pass, got %d", rec.Code)
	}

	rec := request("203.0.113.9:51236")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", rec.Code)
	}
	if rec.Header().Get(headerRetryAfter) == "" {
		t.Fatal("expected a Retry-After header on the limited response")
	}

	// A different client address keeps its own budget. Port changes above
	// prove the key is the host, not the full remote address.
	if rec := request("198.51.100.4:40000"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected other client to pass, got %d", rec.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	if got := clientKey(req); got != "203.0.113.9" {
		t.Fatalf("expected host part, got %q", got)
	}

	req.RemoteAddr = "bad-addr"
	if got := clientKey(req); got != "bad-addr" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}
