package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// Store keeps every record in process memory. It enforces the same unique
// constraints as the sqlite backend.
type Store struct {
	mu     sync.Mutex
	nextID int64

	users      []core.User
	wallets    []core.Wallet
	categories []core.Category
	entries    []core.LedgerEntry
	debts      []core.Debt
	budgets    []core.Budget
	goals      []core.Goal
	rules      []core.RecurringRule
}

func New() *Store {
	return &Store{}
}

// NewFromFiles seeds users and wallets from base/seed_users.txt
// ("phone,name") and base/seed_wallets.txt ("phone,wallet,initial").
// Missing files yield an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	for _, fields := range readRecords(filepath.Join(base, "seed_users.txt")) {
		name := ""
		if len(fields) > 1 {
			name = fields[1]
		}
		s.AddUser(fields[0], name)
	}
	for _, fields := range readRecords(filepath.Join(base, "seed_wallets.txt")) {
		if len(fields) < 2 {
			continue
		}
		u, err := s.FindUserByPhone(context.Background(), fields[0])
		if err != nil {
			continue
		}
		initial := decimal.Zero
		if len(fields) > 2 {
			if v, err := decimal.NewFromString(fields[2]); err == nil {
				initial = v
			}
		}
		s.AddWallet(u.ID, fields[1], initial)
	}
	return s
}

// AddUser registers a phone number. Registration is owned by an external
// system; this exists for seeding and tests.
func (s *Store) AddUser(phone, name string) core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := core.User{ID: s.id(), Phone: phone, Name: name}
	s.users = append(s.users, u)
	return u
}

func (s *Store) AddWallet(userID int64, name string, initial decimal.Decimal) core.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := core.Wallet{ID: s.id(), UserID: userID, Name: name, InitialBalance: initial}
	s.wallets = append(s.wallets, w)
	return w
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func (s *Store) FindUserByPhone(_ context.Context, phone string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

// Categories

func (s *Store) FindCategory(_ context.Context, userID int64, name string, typ core.EntryType) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.UserID == userID && c.Type == typ && sameName(c.Name, name) {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && existing.Type == c.Type && sameName(existing.Name, c.Name) {
			return core.Category{}, core.ErrConflict
		}
	}
	c.ID = s.id()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CategoryUsage(_ context.Context, categoryID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.CategoryID == categoryID {
			n++
		}
	}
	for _, r := range s.rules {
		if r.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			budgets := s.budgets[:0]
			for _, b := range s.budgets {
				if b.CategoryID != id {
					budgets = append(budgets, b)
				}
			}
			s.budgets = budgets
			return nil
		}
	}
	return core.ErrNotFound
}

// Ledger

func (s *Store) CreateEntry(_ context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntry(e), nil
}

func (s *Store) appendEntry(e core.LedgerEntry) core.LedgerEntry {
	e.ID = s.id()
	e.CreatedAt = stamp(e.CreatedAt)
	s.entries = append(s.entries, e)
	return e
}

func (s *Store) CreateTransfer(_ context.Context, out, in core.LedgerEntry) (core.LedgerEntry, core.LedgerEntry, error) {
	if err := out.Validate(); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, err
	}
	if err := in.Validate(); err != nil {
		return core.LedgerEntry{}, core.LedgerEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntry(out), s.appendEntry(in), nil
}

func (s *Store) SumTotals(_ context.Context, userID int64, from, to time.Time) (core.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t core.Totals
	for _, e := range s.entries {
		if e.UserID == userID && inRange(e.Date, from, to) {
			t = t.Add(e.Type, e.Amount)
		}
	}
	return t, nil
}

func (s *Store) SumCategoryExpenses(_ context.Context, userID, categoryID int64, from, to time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, e := range s.entries {
		if e.UserID == userID && e.CategoryID == categoryID && e.Type == core.Expense && inRange(e.Date, from, to) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (s *Store) SumWalletTotals(_ context.Context, userID, walletID int64) (core.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t core.Totals
	for _, e := range s.entries {
		if e.UserID == userID && e.WalletID != nil && *e.WalletID == walletID {
			t = t.Add(e.Type, e.Amount)
		}
	}
	return t, nil
}

// Debts

func (s *Store) FindActiveDebt(_ context.Context, userID int64, kind core.DebtKind, person string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.debts {
		if d.UserID == userID && d.Kind == kind && d.Status == core.DebtActive && sameName(d.Person, person) {
			return d, nil
		}
	}
	return core.Debt{}, core.ErrNotFound
}

func (s *Store) CreateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id()
	d.CreatedAt = stamp(d.CreatedAt)
	d.UpdatedAt = d.CreatedAt
	s.debts = append(s.debts, d)
	return d, nil
}

func (s *Store) UpdateDebt(_ context.Context, d core.Debt) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.debts {
		if s.debts[i].ID == d.ID {
			d.CreatedAt = s.debts[i].CreatedAt
			d.UpdatedAt = stamp(d.UpdatedAt)
			s.debts[i] = d
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListActiveDebts(_ context.Context, userID int64) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Debt
	for _, d := range s.debts {
		if d.UserID == userID && d.Status == core.DebtActive {
			out = append(out, d)
		}
	}
	return out, nil
}

// Budgets

func (s *Store) FindBudget(_ context.Context, userID, categoryID int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID {
			return b, nil
		}
	}
	return core.Budget{}, core.ErrNotFound
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if !b.Limit.IsPositive() {
		return core.Budget{}, core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.CategoryID == b.CategoryID {
			return core.Budget{}, core.ErrConflict
		}
	}
	b.ID = s.id()
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == b.ID {
			s.budgets[i].Limit = b.Limit
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Goals

func (s *Store) FindGoal(_ context.Context, userID int64, name string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.UserID == userID && sameName(g.Name, name) {
			return g, nil
		}
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.goals {
		if existing.UserID == g.UserID && sameName(existing.Name, g.Name) {
			return core.Goal{}, core.ErrConflict
		}
	}
	g.ID = s.id()
	g.CreatedAt = stamp(g.CreatedAt)
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i].Target = g.Target
			s.goals[i].Current = g.Current
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID int64) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

// Wallets

func (s *Store) FindWallet(_ context.Context, userID int64, name string) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID && sameName(w.Name, name) {
			return w, nil
		}
	}
	return core.Wallet{}, core.ErrNotFound
}

func (s *Store) ListWallets(_ context.Context, userID int64) ([]core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

// Recurring rules

func (s *Store) CreateRule(_ context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = stamp(r.CreatedAt)
	s.rules = append(s.rules, r)
	return r, nil
}

func (s *Store) ListActiveRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringRule
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) MarkExecuted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].LastExecution = at
			return nil
		}
	}
	return core.ErrNotFound
}

// Mutations

func (s *Store) LatestMutation(_ context.Context, kind core.MutationKind, userID int64) (core.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []core.Mutation
	switch kind {
	case core.MutationLedger:
		for _, e := range s.entries {
			if e.UserID == userID {
				candidates = append(candidates, core.Mutation{Kind: kind, ID: e.ID, Amount: e.Amount, Label: e.Note, CreatedAt: e.CreatedAt})
			}
		}
	case core.MutationDebt:
		for _, d := range s.debts {
			if d.UserID == userID {
				candidates = append(candidates, core.Mutation{Kind: kind, ID: d.ID, Amount: d.Original, Label: d.Person, CreatedAt: d.CreatedAt})
			}
		}
	case core.MutationGoal:
		for _, g := range s.goals {
			if g.UserID == userID {
				candidates = append(candidates, core.Mutation{Kind: kind, ID: g.ID, Amount: g.Target, Label: g.Name, CreatedAt: g.CreatedAt})
			}
		}
	}

	// Later inserts win ties within one kind.
	var (
		best  core.Mutation
		found bool
	)
	for _, m := range candidates {
		if !found || !m.CreatedAt.Before(best.CreatedAt) {
			best, found = m, true
		}
	}
	if !found {
		return core.Mutation{}, core.ErrNotFound
	}
	return best, nil
}

func (s *Store) DeleteMutation(_ context.Context, kind core.MutationKind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case core.MutationLedger:
		for i, e := range s.entries {
			if e.ID == id {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return nil
			}
		}
	case core.MutationDebt:
		for i, d := range s.debts {
			if d.ID == id {
				s.debts = append(s.debts[:i], s.debts[i+1:]...)
				return nil
			}
		}
	case core.MutationGoal:
		for i, g := range s.goals {
			if g.ID == id {
				s.goals = append(s.goals[:i], s.goals[i+1:]...)
				return nil
			}
		}
	}
	return core.ErrNotFound
}

func readRecords(path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out [][]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if fields[0] == "" {
			continue
		}
		out = append(out, fields)
	}
	return out
}
