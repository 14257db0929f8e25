package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/reply"
	"dompet/internal/store"
)

// LedgerPublisher announces recorded ledger entries to downstream consumers.
type LedgerPublisher interface {
	PublishLedgerRecorded(ctx context.Context, e core.LedgerEntry, category string) error
}

// Interpreter executes parsed commands against a store.
//
// Validation failures are returned as failure replies with a nil error.
// Only persistence failures surface as errors.
type Interpreter struct {
	store     store.Store
	publisher LedgerPublisher
	now       func() time.Time
	loc       *time.Location

	categories singleflight.Group
}

type Option func(*Interpreter)

// WithPublisher enables ledger event publishing.
func WithPublisher(p LedgerPublisher) Option {
	return func(in *Interpreter) { in.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) { in.now = now }
}

// WithLocation sets the zone used for month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(in *Interpreter) { in.loc = loc }
}

func NewInterpreter(st store.Store, opts ...Option) *Interpreter {
	in := &Interpreter{
		store: st,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Execute runs one command for user.
func (in *Interpreter) Execute(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	switch cmd.Kind {
	case command.Transaction:
		return in.transaction(ctx, user, cmd)
	case command.DebtCreate:
		return in.createDebt(ctx, user, cmd)
	case command.DebtPay:
		return in.payDebt(ctx, user, cmd)
	case command.DebtSettle:
		return in.settleDebt(ctx, user, cmd)
	case command.BudgetSet:
		return in.setBudget(ctx, user, cmd)
	case command.GoalCreate:
		return in.createGoal(ctx, user, cmd)
	case command.GoalFund:
		return in.fundGoal(ctx, user, cmd)
	case command.Recurring:
		return in.createRecurring(ctx, user, cmd)
	case command.Transfer:
		return in.transfer(ctx, user, cmd)
	case command.Undo:
		return in.undo(ctx, user)
	case command.DeleteCategory:
		return in.deleteCategory(ctx, user, cmd)
	case command.CheckBalance:
		return in.balanceReport(ctx, user)
	case command.CheckDebts:
		return in.debtReport(ctx, user)
	case command.CheckBudgets:
		return in.budgetReport(ctx, user)
	case command.CheckGoals:
		return in.goalReport(ctx, user)
	case command.CheckWallets:
		return in.walletReport(ctx, user)
	}
	return nil, fmt.Errorf("unhandled command kind %q", cmd.Kind)
}

// FindOrCreateCategory resolves a category by name and direction, creating
// it when missing. Concurrent callers in this process share one lookup; a
// creation race with another process is settled by re-reading after
// core.ErrConflict.
func (in *Interpreter) FindOrCreateCategory(ctx context.Context, userID int64, name string, typ core.EntryType) (core.Category, error) {
	key := fmt.Sprintf("%d:%s:%s", userID, typ, strings.ToLower(name))
	v, err, _ := in.categories.Do(key, func() (any, error) {
		return in.resolveCategory(ctx, userID, name, typ)
	})
	if err != nil {
		return core.Category{}, err
	}
	return v.(core.Category), nil
}

func (in *Interpreter) resolveCategory(ctx context.Context, userID int64, name string, typ core.EntryType) (core.Category, error) {
	c, err := in.store.FindCategory(ctx, userID, name, typ)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, fmt.Errorf("find category: %w", err)
	}

	c, err = in.store.CreateCategory(ctx, core.Category{UserID: userID, Name: name, Type: typ})
	if errors.Is(err, core.ErrConflict) {
		c, err = in.store.FindCategory(ctx, userID, name, typ)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (in *Interpreter) publish(ctx context.Context, e core.LedgerEntry, category string) {
	if in.publisher == nil {
		return
	}
	if err := in.publisher.PublishLedgerRecorded(ctx, e, category); err != nil {
		// Don't fail the command, the entry is saved locally.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "entry_id", e.ID, "error", err)
	}
}

func (in *Interpreter) monthRange() (time.Time, time.Time) {
	return core.MonthRange(in.now().In(in.loc))
}

func missingAmount(example string) reply.Plain {
	return reply.Errorf("Nominal tidak ditemukan atau tidak valid. Contoh: %s", example)
}

func missingTag(what, example string) reply.Plain {
	return reply.Errorf("%s wajib ditulis dengan @. Contoh: %s", what, example)
}

const maxNoteLength = 200

func noteTooLong() reply.Plain {
	return reply.Errorf("Catatan terlalu panjang (maksimal %d karakter)", maxNoteLength)
}
