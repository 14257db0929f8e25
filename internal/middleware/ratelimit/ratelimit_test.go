package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLimiter_Allow(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 2}, c.now)

	steps := []struct {
		advance time.Duration
		key     string
		want    bool
	}{
		{0, "a", true},
		{time.Second, "a", true},
		{time.Second, "a", false},
		{0, "b", true},
		{time.Minute, "a", true}, // new window
	}
	for i, s := range steps {
		c.t = c.t.Add(s.advance)
		if got := rl.Allow(s.key); got != s.want {
			t.Errorf("step %d: Allow(%q) = %v, want %v", i, s.key, got, s.want)
		}
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	rl := newLimiter(DefaultConfig(), c.now)
	rl.Allow("old")
	c.t = c.t.Add(11 * time.Minute)
	rl.Allow("new")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("cleanupStaleEntries() = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "k" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := []int{http.StatusNoContent, http.StatusTooManyRequests}
	for i, want := range codes {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		if rr.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, rr.Code, want)
		}
	}
}
