package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/sheets"
)

const (
	recentCapacity = 5000
	recentTTL      = 24 * time.Hour
)

// SyncWorker mirrors ledger-recorded events into a spreadsheet.
type SyncWorker struct {
	sheets sheets.LedgerWriter
	// Entry IDs mirrored recently; a redelivered event is acknowledged
	// without a second append.
	recent *cache.LRUCache[string]
}

func NewSyncWorker(sheets sheets.LedgerWriter) *SyncWorker {
	return &SyncWorker{
		sheets: sheets,
		recent: cache.NewLRUCache[string](recentCapacity, recentTTL),
	}
}

// Recent exposes the dedup cache so the caller can register it for cleanup.
func (w *SyncWorker) Recent() cache.Cleaner {
	return w.recent
}

// HandleLedgerRecorded processes a single ledger event from AMQP.
func (w *SyncWorker) HandleLedgerRecorded(ctx context.Context, msg *amqp.LedgerRecordedMessage) error {
	slog.InfoContext(ctx, "Processing ledger message",
		"id", msg.ID,
		"user_id", msg.UserID,
		"type", msg.Type)

	key := strconv.FormatInt(msg.ID, 10)
	if ref, ok := w.recent.Get(key); ok {
		slog.InfoContext(ctx, "Ledger entry already mirrored, skipping",
			"id", msg.ID,
			"sheets_ref", ref)
		return nil
	}

	row := sheets.LedgerRow{
		ID:       msg.ID,
		UserID:   msg.UserID,
		Date:     msg.Date,
		Type:     msg.Type,
		Category: msg.Category,
		Note:     msg.Note,
		Amount:   msg.Amount,
	}
	ref, err := w.sheets.AppendLedger(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.recent.Set(key, ref)

	slog.InfoContext(ctx, "Successfully mirrored ledger entry",
		"id", msg.ID,
		"sheets_ref", ref,
		"amount", msg.Amount.String())
	return nil
}
