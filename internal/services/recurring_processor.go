package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/core"
	"dompet/internal/store"
)

// RecurringStore is the persistence the processor needs.
type RecurringStore interface {
	store.RecurringStore
	store.LedgerStore
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
}

// RecurringProcessor turns due recurring rules into ledger entries.
type RecurringProcessor struct {
	store     RecurringStore
	publisher LedgerPublisher
}

// NewRecurringProcessor creates a processor. publisher may be nil.
func NewRecurringProcessor(st RecurringStore, publisher LedgerPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		store:     st,
		publisher: publisher,
	}
}

// ProcessDue creates one ledger entry dated now for every active rule that
// is due and records the execution. It returns how many rules ran.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	rules, err := p.store.ListActiveRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active rules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(rules),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rule := range rules {
		checker, err := GetDuenessChecker(rule.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping rule with unknown interval", "rule_id", rule.ID, "error", err)
			continue
		}
		if !checker.IsDue(rule.LastExecution, now, rule.StartDate) {
			continue
		}

		entry, err := p.store.CreateEntry(ctx, core.LedgerEntry{
			UserID:     rule.UserID,
			Amount:     rule.Amount,
			Type:       rule.Type,
			CategoryID: rule.CategoryID,
			Note:       rule.Note,
			Date:       now,
			CreatedAt:  now,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create entry from recurring rule",
				"rule_id", rule.ID,
				"error", err)
			continue
		}

		if err := p.store.MarkExecuted(ctx, rule.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update last execution",
				"rule_id", rule.ID,
				"error", err)
			// Continue anyway - the entry was created
		}

		p.publish(ctx, entry)
		processed++
		slog.InfoContext(ctx, "Created entry from recurring rule",
			"rule_id", rule.ID,
			"entry_id", entry.ID,
			"amount", rule.Amount.String(),
			"every", rule.Every)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(rules))

	return processed, nil
}

func (p *RecurringProcessor) publish(ctx context.Context, e core.LedgerEntry) {
	if p.publisher == nil {
		return
	}
	category := ""
	if cats, err := p.store.ListCategories(ctx, e.UserID); err == nil {
		for _, c := range cats {
			if c.ID == e.CategoryID {
				category = c.Name
				break
			}
		}
	}
	if err := p.publisher.PublishLedgerRecorded(ctx, e, category); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event", "entry_id", e.ID, "error", err)
	}
}
