package worker

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_PerClient(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("10.0.0.1") {
		t.Error("first request should pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("second request should be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("other client should pass")
	}
	if limiter.Len() != 2 {
		t.Errorf("expected 2 tracked clients, got %d", limiter.Len())
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	limiter.Allow("old")
	now = now.Add(10 * time.Minute)
	limiter.Allow("new")

	if removed := limiter.Sweep(5 * time.Minute); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 client left, got %d", limiter.Len())
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := ClientKey(r, false); got != "192.0.2.1" {
		t.Errorf("expected remote IP, got %s", got)
	}
	if got := ClientKey(r, true); got != "203.0.113.9" {
		t.Errorf("expected forwarded IP, got %s", got)
	}

	r.RemoteAddr = "no-port"
	if got := ClientKey(r, false); got != "no-port" {
		t.Errorf("expected raw address fallback, got %s", got)
	}
}
