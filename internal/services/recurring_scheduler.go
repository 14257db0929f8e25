package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RecurringScheduler runs a RecurringProcessor on a fixed interval inside a
// long-lived process. cmd/recurring-worker runs the processor once instead.
type RecurringScheduler struct {
	processor *RecurringProcessor
	interval  time.Duration
	now       func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRecurringScheduler(processor *RecurringProcessor, interval time.Duration, loc *time.Location) *RecurringScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if loc == nil {
		loc = time.Local
	}
	return &RecurringScheduler{
		processor: processor,
		interval:  interval,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *RecurringScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("recurring scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Recurring scheduler started", "interval", s.interval)
	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to expire.
func (s *RecurringScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *RecurringScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RecurringScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Process immediately on startup
	s.tick(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *RecurringScheduler) tick(ctx context.Context) {
	if _, err := s.processor.ProcessDue(ctx, s.now()); err != nil {
		slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
	}
}
