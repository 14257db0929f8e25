package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"dompet/internal/core"
	"dompet/internal/store"
)

var _ store.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// DSN enables foreign keys and a busy timeout on every connection.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(DSN(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return r.now()
	}
	return t
}

// translate maps driver errors onto the core sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return core.ErrConflict
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return core.ErrConflict
	}
	return err
}

func mustAffect(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AddUser registers a phone number. Registration is owned by an external
// system; the CLI uses this for provisioning.
func (r *SQLiteRepository) AddUser(ctx context.Context, phone, name string) (core.User, error) {
	id, err := r.queries.InsertUser(ctx, phone, name, r.now())
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", translate(err))
	}
	slog.InfoContext(ctx, "User registered", "user_id", id)
	return core.User{ID: id, Phone: phone, Name: name}, nil
}

func (r *SQLiteRepository) AddWallet(ctx context.Context, userID int64, name string, initial decimal.Decimal) (core.Wallet, error) {
	w := core.Wallet{UserID: userID, Name: name, InitialBalance: initial}
	id, err := r.queries.InsertWallet(ctx, w)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("insert wallet: %w", translate(err))
	}
	w.ID = id
	return w, nil
}

func (r *SQLiteRepository) FindUserByPhone(ctx context.Context, phone string) (core.User, error) {
	u, err := r.queries.GetUserByPhone(ctx, phone)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by phone: %w", translate(err))
	}
	return u, nil
}

// Categories

func (r *SQLiteRepository) FindCategory(ctx context.Context, userID int64, name string, typ core.EntryType) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, userID, strings.TrimSpace(name), typ)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, translate(err))
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	id, err := r.queries.InsertCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category %q: %w", c.Name, translate(err))
	}
	c.ID = id
	slog.InfoContext(ctx, "Category created", "category_id", id, "category", c.Name, "type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	cs, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cs, nil
}

func (r *SQLiteRepository) CategoryUsage(ctx context.Context, categoryID int64) (int, error) {
	n, err := r.queries.CountCategoryUsage(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("count category usage: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	if err := mustAffect(r.queries.DeleteCategory(ctx, id)); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Ledger

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	e.CreatedAt = r.stamp(e.CreatedAt)
	id, err := r.queries.InsertEntry(ctx, e)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", translate(err))
	}
	e.ID = id

	slog.InfoContext(ctx, "Ledger entry saved to SQLite",
		"entry_id", e.ID,
		"type", e.Type,
		"amount", e.Amount.String(),
		"category_id", e.CategoryID)
	return e, nil
}

func (r *SQLiteRepository) CreateTransfer(ctx context.Context, out, in core.LedgerEntry) (core.LedgerEntry, core.LedgerEntry, error) {
	if err := out.Validate(); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, err
	}
	if err := in.Validate(); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	out.CreatedAt = r.stamp(out.CreatedAt)
	in.CreatedAt = r.stamp(in.CreatedAt)
	if out.ID, err = q.InsertEntry(ctx, out); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, fmt.Errorf("insert transfer out: %w", translate(err))
	}
	if in.ID, err = q.InsertEntry(ctx, in); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, fmt.Errorf("insert transfer in: %w", translate(err))
	}
	if err := tx.Commit(); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, fmt.Errorf("commit transfer: %w", err)
	}
	return out, in, nil
}

func dateRange(from, to time.Time) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if !from.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, from.UnixNano())
	}
	if !to.IsZero() {
		where = append(where, "date < ?")
		args = append(args, to.UnixNano())
	}
	if len(where) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(where, " AND "), args
}

func (r *SQLiteRepository) SumTotals(ctx context.Context, userID int64, from, to time.Time) (core.Totals, error) {
	cond, args := dateRange(from, to)
	t, err := r.queries.SumEntries(ctx, "user_id = ?"+cond, append([]interface{}{userID}, args...)...)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum totals: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) SumCategoryExpenses(ctx context.Context, userID, categoryID int64, from, to time.Time) (decimal.Decimal, error) {
	cond, args := dateRange(from, to)
	t, err := r.queries.SumEntries(ctx, "user_id = ? AND category_id = ? AND type = 'EXPENSE'"+cond,
		append([]interface{}{userID, categoryID}, args...)...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum category expenses: %w", err)
	}
	return t.Expense, nil
}

func (r *SQLiteRepository) SumWalletTotals(ctx context.Context, userID, walletID int64) (core.Totals, error) {
	t, err := r.queries.SumEntries(ctx, "user_id = ? AND wallet_id = ?", userID, walletID)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum wallet totals: %w", err)
	}
	return t, nil
}

// Debts

func (r *SQLiteRepository) FindActiveDebt(ctx context.Context, userID int64, kind core.DebtKind, person string) (core.Debt, error) {
	d, err := r.queries.GetActiveDebt(ctx, userID, kind, strings.TrimSpace(person))
	if err != nil {
		return core.Debt{}, fmt.Errorf("get active debt: %w", translate(err))
	}
	return d, nil
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.CreatedAt = r.stamp(d.CreatedAt)
	d.UpdatedAt = d.CreatedAt
	id, err := r.queries.InsertDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", translate(err))
	}
	d.ID = id
	return d, nil
}

func (r *SQLiteRepository) UpdateDebt(ctx context.Context, d core.Debt) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.UpdatedAt = r.stamp(d.UpdatedAt)
	if err := mustAffect(r.queries.UpdateDebt(ctx, d)); err != nil {
		return fmt.Errorf("update debt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListActiveDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	ds, err := r.queries.ListActiveDebts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active debts: %w", err)
	}
	return ds, nil
}

// Budgets

func (r *SQLiteRepository) FindBudget(ctx context.Context, userID, categoryID int64) (core.Budget, error) {
	b, err := r.queries.GetBudget(ctx, userID, categoryID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", translate(err))
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if !b.Limit.IsPositive() {
		return core.Budget{}, core.ErrInvalidAmount
	}
	id, err := r.queries.InsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", translate(err))
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := mustAffect(r.queries.UpdateBudget(ctx, b)); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	bs, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return bs, nil
}

// Goals

func (r *SQLiteRepository) FindGoal(ctx context.Context, userID int64, name string) (core.Goal, error) {
	g, err := r.queries.GetGoal(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", translate(err))
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.CreatedAt = r.stamp(g.CreatedAt)
	id, err := r.queries.InsertGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", translate(err))
	}
	g.ID = id
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	if err := mustAffect(r.queries.UpdateGoal(ctx, g)); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	gs, err := r.queries.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return gs, nil
}

// Wallets

func (r *SQLiteRepository) FindWallet(ctx context.Context, userID int64, name string) (core.Wallet, error) {
	w, err := r.queries.GetWallet(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", translate(err))
	}
	return w, nil
}

func (r *SQLiteRepository) ListWallets(ctx context.Context, userID int64) ([]core.Wallet, error) {
	ws, err := r.queries.ListWallets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return ws, nil
}

// Recurring rules

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	rule.CreatedAt = r.stamp(rule.CreatedAt)
	id, err := r.queries.InsertRule(ctx, rule)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("insert recurring rule: %w", translate(err))
	}
	rule.ID = id
	return rule, nil
}

func (r *SQLiteRepository) ListActiveRules(ctx context.Context) ([]core.RecurringRule, error) {
	rules, err := r.queries.ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return rules, nil
}

func (r *SQLiteRepository) MarkExecuted(ctx context.Context, id int64, at time.Time) error {
	if err := mustAffect(r.queries.MarkRuleExecuted(ctx, id, at)); err != nil {
		return fmt.Errorf("mark rule executed: %w", err)
	}
	return nil
}

// Mutations

func (r *SQLiteRepository) LatestMutation(ctx context.Context, kind core.MutationKind, userID int64) (core.Mutation, error) {
	m, err := r.queries.LatestMutation(ctx, kind, userID)
	if err != nil {
		return core.Mutation{}, fmt.Errorf("latest %s: %w", kind, translate(err))
	}
	return m, nil
}

func (r *SQLiteRepository) DeleteMutation(ctx context.Context, kind core.MutationKind, id int64) error {
	if err := mustAffect(r.queries.DeleteMutation(ctx, kind, id)); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	slog.InfoContext(ctx, "Mutation deleted", "kind", kind, "id", id)
	return nil
}
