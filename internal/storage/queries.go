package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL for every table. Amounts are stored as decimal
// strings and instants as unix nanoseconds, zero meaning unset.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func insertID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Users and wallets

const insertUser = `INSERT INTO users (phone, name, created_at) VALUES (?, ?, ?)`

func (q *Queries) InsertUser(ctx context.Context, phone, name string, at time.Time) (int64, error) {
	return insertID(q.db.ExecContext(ctx, insertUser, phone, name, nanos(at)))
}

const getUserByPhone = `SELECT id, phone, name FROM users WHERE phone = ?`

func (q *Queries) GetUserByPhone(ctx context.Context, phone string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx, getUserByPhone, phone).Scan(&u.ID, &u.Phone, &u.Name)
	return u, err
}

const insertWallet = `INSERT INTO wallets (user_id, name, initial_balance) VALUES (?, ?, ?)`

func (q *Queries) InsertWallet(ctx context.Context, w core.Wallet) (int64, error) {
	return insertID(q.db.ExecContext(ctx, insertWallet, w.UserID, w.Name, w.InitialBalance))
}

const selectWallet = `SELECT id, user_id, name, initial_balance FROM wallets`

func scanWallet(row scanner) (core.Wallet, error) {
	var w core.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.InitialBalance)
	return w, err
}

func (q *Queries) GetWallet(ctx context.Context, userID int64, name string) (core.Wallet, error) {
	return scanWallet(q.db.QueryRowContext(ctx, selectWallet+` WHERE user_id = ? AND name = ?`, userID, name))
}

func (q *Queries) ListWallets(ctx context.Context, userID int64) ([]core.Wallet, error) {
	rows, err := q.db.QueryContext(ctx, selectWallet+` WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWallet)
}

// Categories

const selectCategory = `SELECT id, user_id, name, type FROM categories`

func scanCategory(row scanner) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	return c, err
}

func (q *Queries) GetCategory(ctx context.Context, userID int64, name string, typ core.EntryType) (core.Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, selectCategory+` WHERE user_id = ? AND type = ? AND name = ?`, userID, typ, name))
}

func (q *Queries) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	return insertID(q.db.ExecContext(ctx, `INSERT INTO categories (user_id, name, type) VALUES (?, ?, ?)`, c.UserID, c.Name, c.Type))
}

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, selectCategory+` WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCategory)
}

const countCategoryUsage = `
SELECT (SELECT COUNT(*) FROM ledger_entries WHERE category_id = ?1)
     + (SELECT COUNT(*) FROM recurring_rules WHERE category_id = ?1)`

func (q *Queries) CountCategoryUsage(ctx context.Context, categoryID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, countCategoryUsage, categoryID).Scan(&n)
	return n, err
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	return affected(q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id))
}

// Ledger

const insertEntry = `
INSERT INTO ledger_entries (user_id, amount, type, category_id, wallet_id, note, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	return insertID(q.db.ExecContext(ctx, insertEntry,
		e.UserID, e.Amount, e.Type, e.CategoryID, nullID(e.WalletID), e.Note, nanos(e.Date), nanos(e.CreatedAt)))
}

// SumEntries folds amount by type over the rows matched by where. Summation
// happens in Go so amounts never pass through floating point.
func (q *Queries) SumEntries(ctx context.Context, where string, args ...interface{}) (core.Totals, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT type, amount FROM ledger_entries WHERE `+where, args...)
	if err != nil {
		return core.Totals{}, err
	}
	defer rows.Close()

	var t core.Totals
	for rows.Next() {
		var (
			typ    core.EntryType
			amount decimal.Decimal
		)
		if err := rows.Scan(&typ, &amount); err != nil {
			return core.Totals{}, err
		}
		t = t.Add(typ, amount)
	}
	return t, rows.Err()
}

// Debts

const selectDebt = `SELECT id, user_id, kind, person, amount, original, status, note, created_at, updated_at FROM debts`

func scanDebt(row scanner) (core.Debt, error) {
	var (
		d                core.Debt
		created, updated int64
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Kind, &d.Person, &d.Amount, &d.Original, &d.Status, &d.Note, &created, &updated)
	d.CreatedAt, d.UpdatedAt = fromNanos(created), fromNanos(updated)
	return d, err
}

func (q *Queries) GetActiveDebt(ctx context.Context, userID int64, kind core.DebtKind, person string) (core.Debt, error) {
	return scanDebt(q.db.QueryRowContext(ctx,
		selectDebt+` WHERE user_id = ? AND kind = ? AND person = ? AND status = 'ACTIVE' ORDER BY id LIMIT 1`,
		userID, kind, person))
}

const insertDebt = `
INSERT INTO debts (user_id, kind, person, amount, original, status, note, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertDebt(ctx context.Context, d core.Debt) (int64, error) {
	return insertID(q.db.ExecContext(ctx, insertDebt,
		d.UserID, d.Kind, d.Person, d.Amount, d.Original, d.Status, d.Note, nanos(d.CreatedAt), nanos(d.UpdatedAt)))
}

const updateDebt = `
UPDATE debts SET person = ?, amount = ?, original = ?, status = ?, note = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateDebt(ctx context.Context, d core.Debt) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateDebt,
		d.Person, d.Amount, d.Original, d.Status, d.Note, nanos(d.UpdatedAt), d.ID))
}

func (q *Queries) ListActiveDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	rows, err := q.db.QueryContext(ctx, selectDebt+` WHERE user_id = ? AND status = 'ACTIVE' ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDebt)
}

// Budgets

const selectBudget = `SELECT id, user_id, category_id, limit_amount FROM budgets`

func scanBudget(row scanner) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Limit)
	return b, err
}

func (q *Queries) GetBudget(ctx context.Context, userID, categoryID int64) (core.Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, selectBudget+` WHERE user_id = ? AND category_id = ?`, userID, categoryID))
}

func (q *Queries) InsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	return insertID(q.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, limit_amount) VALUES (?, ?, ?)`, b.UserID, b.CategoryID, b.Limit))
}

func (q *Queries) UpdateBudget(ctx context.Context, b core.Budget) (int64, error) {
	return affected(q.db.ExecContext(ctx, `UPDATE budgets SET limit_amount = ? WHERE id = ?`, b.Limit, b.ID))
}

func (q *Queries) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, selectBudget+` WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBudget)
}

// Goals

const selectGoal = `SELECT id, user_id, name, target, current, created_at FROM goals`

func scanGoal(row scanner) (core.Goal, error) {
	var (
		g       core.Goal
		created int64
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Target, &g.Current, &created)
	g.CreatedAt = fromNanos(created)
	return g, err
}

func (q *Queries) GetGoal(ctx context.Context, userID int64, name string) (core.Goal, error) {
	return scanGoal(q.db.QueryRowContext(ctx, selectGoal+` WHERE user_id = ? AND name = ?`, userID, name))
}

func (q *Queries) InsertGoal(ctx context.Context, g core.Goal) (int64, error) {
	return insertID(q.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target, current, created_at) VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target, g.Current, nanos(g.CreatedAt)))
}

func (q *Queries) UpdateGoal(ctx context.Context, g core.Goal) (int64, error) {
	return affected(q.db.ExecContext(ctx, `UPDATE goals SET target = ?, current = ? WHERE id = ?`, g.Target, g.Current, g.ID))
}

func (q *Queries) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx, selectGoal+` WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanGoal)
}

// Recurring rules

const selectRule = `
SELECT id, user_id, amount, type, every, category_id, note, start_date, last_execution, active, created_at
FROM recurring_rules`

func scanRule(row scanner) (core.RecurringRule, error) {
	var (
		r                    core.RecurringRule
		start, last, created int64
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Amount, &r.Type, &r.Every, &r.CategoryID, &r.Note, &start, &last, &r.Active, &created)
	r.StartDate, r.LastExecution, r.CreatedAt = fromNanos(start), fromNanos(last), fromNanos(created)
	return r, err
}

const insertRule = `
INSERT INTO recurring_rules (user_id, amount, type, every, category_id, note, start_date, last_execution, active, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRule(ctx context.Context, r core.RecurringRule) (int64, error) {
	return insertID(q.db.ExecContext(ctx, insertRule,
		r.UserID, r.Amount, r.Type, r.Every, r.CategoryID, r.Note,
		nanos(r.StartDate), nanos(r.LastExecution), r.Active, nanos(r.CreatedAt)))
}

func (q *Queries) ListActiveRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := q.db.QueryContext(ctx, selectRule+` WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRule)
}

func (q *Queries) MarkRuleExecuted(ctx context.Context, id int64, at time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, `UPDATE recurring_rules SET last_execution = ? WHERE id = ?`, nanos(at), id))
}

// Mutations

var latestMutation = map[core.MutationKind]string{
	core.MutationLedger: `SELECT id, amount, note, created_at FROM ledger_entries WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
	core.MutationDebt:   `SELECT id, original, person, created_at FROM debts WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
	core.MutationGoal:   `SELECT id, target, name, created_at FROM goals WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
}

var deleteMutation = map[core.MutationKind]string{
	core.MutationLedger: `DELETE FROM ledger_entries WHERE id = ?`,
	core.MutationDebt:   `DELETE FROM debts WHERE id = ?`,
	core.MutationGoal:   `DELETE FROM goals WHERE id = ?`,
}

func (q *Queries) LatestMutation(ctx context.Context, kind core.MutationKind, userID int64) (core.Mutation, error) {
	query, ok := latestMutation[kind]
	if !ok {
		return core.Mutation{}, sql.ErrNoRows
	}
	m := core.Mutation{Kind: kind}
	var created int64
	err := q.db.QueryRowContext(ctx, query, userID).Scan(&m.ID, &m.Amount, &m.Label, &created)
	m.CreatedAt = fromNanos(created)
	return m, err
}

func (q *Queries) DeleteMutation(ctx context.Context, kind core.MutationKind, id int64) (int64, error) {
	query, ok := deleteMutation[kind]
	if !ok {
		return 0, nil
	}
	return affected(q.db.ExecContext(ctx, query, id))
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
