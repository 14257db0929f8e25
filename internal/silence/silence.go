// Package silence tracks conversations where a human operator replied
// manually, so automatic replies stay quiet for a while.
package silence

import (
	"time"

	"dompet/internal/cache"
)

// Store is the interface the router depends on.
type Store interface {
	MarkManual(conversationID string)
	IsSilenced(conversationID string) bool
}

// Defaults used when the configuration leaves them unset.
const (
	DefaultWindow     = 30 * time.Minute
	DefaultMaxEntries = 10000
)

// Window is a Store backed by a TTL LRU cache. Entries expire after the
// window; the oldest conversations are evicted past maxEntries.
type Window struct {
	entries *cache.LRUCache[struct{}]
}

func NewWindow(window time.Duration, maxEntries int) *Window {
	return NewWindowWithClock(window, maxEntries, time.Now)
}

// NewWindowWithClock is NewWindow with an injected clock.
func NewWindowWithClock(window time.Duration, maxEntries int, now func() time.Time) *Window {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Window{entries: cache.NewLRUCacheWithClock[struct{}](maxEntries, window, now)}
}

// MarkManual starts or restarts the window for a conversation.
func (w *Window) MarkManual(conversationID string) {
	w.entries.Set(conversationID, struct{}{})
}

func (w *Window) IsSilenced(conversationID string) bool {
	_, ok := w.entries.Get(conversationID)
	return ok
}

// CleanExpired lets a cache.Manager sweep expired windows.
func (w *Window) CleanExpired() int {
	return w.entries.CleanExpired()
}
