// Package store declares the persistence ports the handlers depend on.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// Ports for outbound adapters. Lookups that find nothing return
// core.ErrNotFound; unique constraint violations return core.ErrConflict.
// Name lookups are case-insensitive.
type (
	UserReader interface {
		FindUserByPhone(ctx context.Context, phone string) (core.User, error)
	}

	CategoryStore interface {
		FindCategory(ctx context.Context, userID int64, name string, typ core.EntryType) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// ListCategories returns the user's categories ordered by creation.
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		// CategoryUsage counts ledger entries and recurring rules referencing the category.
		CategoryUsage(ctx context.Context, categoryID int64) (int, error)
		// DeleteCategory removes the category together with its budget.
		DeleteCategory(ctx context.Context, id int64) error
	}

	LedgerStore interface {
		CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
		// CreateTransfer writes both legs of a wallet transfer atomically.
		CreateTransfer(ctx context.Context, out, in core.LedgerEntry) (core.LedgerEntry, core.LedgerEntry, error)
		// SumTotals aggregates entries dated in [from, to). Zero bounds are open.
		SumTotals(ctx context.Context, userID int64, from, to time.Time) (core.Totals, error)
		SumCategoryExpenses(ctx context.Context, userID, categoryID int64, from, to time.Time) (decimal.Decimal, error)
		SumWalletTotals(ctx context.Context, userID, walletID int64) (core.Totals, error)
	}

	DebtStore interface {
		FindActiveDebt(ctx context.Context, userID int64, kind core.DebtKind, person string) (core.Debt, error)
		CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		UpdateDebt(ctx context.Context, d core.Debt) error
		ListActiveDebts(ctx context.Context, userID int64) ([]core.Debt, error)
	}

	BudgetStore interface {
		FindBudget(ctx context.Context, userID, categoryID int64) (core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	}

	GoalStore interface {
		FindGoal(ctx context.Context, userID int64, name string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
	}

	WalletStore interface {
		FindWallet(ctx context.Context, userID int64, name string) (core.Wallet, error)
		ListWallets(ctx context.Context, userID int64) ([]core.Wallet, error)
	}

	RecurringStore interface {
		CreateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error)
		// ListActiveRules returns active rules of every user.
		ListActiveRules(ctx context.Context) ([]core.RecurringRule, error)
		MarkExecuted(ctx context.Context, id int64, at time.Time) error
	}

	MutationStore interface {
		// LatestMutation returns the user's most recently created record of kind.
		LatestMutation(ctx context.Context, kind core.MutationKind, userID int64) (core.Mutation, error)
		DeleteMutation(ctx context.Context, kind core.MutationKind, id int64) error
	}

	// Store is the full persistence surface of one backend.
	Store interface {
		UserReader
		CategoryStore
		LedgerStore
		DebtStore
		BudgetStore
		GoalStore
		WalletStore
		RecurringStore
		MutationStore
	}
)
