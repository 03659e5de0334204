package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Limit(next)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		statuses = append(statuses, rr.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("expected first two requests within burst, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %v", statuses)
	}
}

func TestRateLimiter_SeparateIPs(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Limit(next)

	for _, addr := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected %s to have its own limiter, got %d", addr, rr.Code)
		}
	}
}

func TestRateLimiter_CleanupLimiters(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.CleanupLimiters(time.Hour)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Fatal("expected idle limiter to be evicted")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Fatal("expected active limiter to survive cleanup")
	}
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	if got := getIP(req); got != "10.0.0.1:1234" {
		t.Fatalf("expected RemoteAddr fallback, got %s", got)
	}

	req.Header.Set("X-Real-IP", "203.0.113.7")
	if got := getIP(req); got != "203.0.113.7" {
		t.Fatalf("expected X-Real-IP, got %s", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	if got := getIP(req); got != "198.51.100.9" {
		t.Fatalf("expected X-Forwarded-For to win, got %s", got)
	}
}
