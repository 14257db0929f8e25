package silence

import (
	"testing"
	"time"

	"dompet/internal/cache"
)

func TestWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	w := NewWindowWithClock(10*time.Minute, 100, clock)

	if w.IsSilenced("chat-1") {
		t.Fatal("new conversation should not be silenced")
	}
	w.MarkManual("chat-1")
	if !w.IsSilenced("chat-1") || w.IsSilenced("chat-2") {
		t.Fatal("only the marked conversation should be silenced")
	}

	now = now.Add(9 * time.Minute)
	w.MarkManual("chat-1")
	now = now.Add(9 * time.Minute)
	if !w.IsSilenced("chat-1") {
		t.Fatal("a new manual reply should restart the window")
	}

	now = now.Add(2 * time.Minute)
	if w.IsSilenced("chat-1") {
		t.Fatal("window should have expired")
	}
}

func TestWindow_Defaults(t *testing.T) {
	w := NewWindow(0, 0)
	w.MarkManual("a")
	if !w.IsSilenced("a") {
		t.Fatal("expected default window to be active")
	}
}

func TestWindow_RegistersWithManager(t *testing.T) {
	now := time.Unix(0, 0)
	w := NewWindowWithClock(time.Minute, 10, func() time.Time { return now })
	w.MarkManual("a")

	m := cache.NewManager()
	m.Register(w)
	now = now.Add(time.Hour)
	if n := m.CleanOnce(); n != 1 {
		t.Fatalf("expected one expired window, got %d", n)
	}
}

var _ Store = (*Window)(nil)
