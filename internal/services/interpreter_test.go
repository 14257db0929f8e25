package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/reply"
	"dompet/internal/store/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) PublishLedgerRecorded(_ context.Context, e core.LedgerEntry, category string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, string(e.Type)+":"+category+":"+e.Amount.String())
	return nil
}

type fixture struct {
	st    *memory.Store
	in    *Interpreter
	user  core.User
	clock *fakeClock
	pub   *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	clock := &fakeClock{t: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}
	pub := &fakePublisher{}
	return &fixture{
		st:    st,
		in:    NewInterpreter(st, WithClock(clock.Now), WithLocation(time.UTC), WithPublisher(pub)),
		user:  st.AddUser("628111", "Budi"),
		clock: clock,
		pub:   pub,
	}
}

func (f *fixture) run(t *testing.T, line string) reply.Reply {
	t.Helper()
	cmd, ok := command.Parse(line)
	if !ok {
		t.Fatalf("line %q did not parse", line)
	}
	r, err := f.in.Execute(context.Background(), f.user, cmd)
	if err != nil {
		t.Fatalf("Execute(%q) error: %v", line, err)
	}
	f.clock.advance(time.Second)
	return r
}

func mustStructured(t *testing.T, r reply.Reply) reply.Structured {
	t.Helper()
	s, ok := r.(reply.Structured)
	if !ok {
		t.Fatalf("expected structured reply, got %#v", r)
	}
	return s
}

func mustFailure(t *testing.T, r reply.Reply) string {
	t.Helper()
	if !reply.IsFailure(r) {
		t.Fatalf("expected failure reply, got %#v", r)
	}
	return string(r.(reply.Plain))
}

func mustPlain(t *testing.T, r reply.Reply) string {
	t.Helper()
	p, ok := r.(reply.Plain)
	if !ok || reply.IsFailure(r) {
		t.Fatalf("expected plain reply, got %#v", r)
	}
	return string(p)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestTransaction(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		title    string
		amount   int64
		category string
		note     string
	}{
		{"expense with tag", "keluar 50k makan siang @makan", "Pengeluaran Tercatat", 50000, "makan", "Makan Siang"},
		{"income with tag", "masuk 5jt gaji @kerja", "Pemasukan Tercatat", 5000000, "kerja", "Gaji"},
		{"default category and note", "keluar 20rb", "Pengeluaran Tercatat", 20000, core.DefaultCategory, "Umum"},
		{"word amount", "out dua ratus lima puluh ribu sepatu @belanja", "Pengeluaran Tercatat", 250000, "belanja", "Sepatu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := mustStructured(t, f.run(t, tt.line))
			if s.Title != tt.title || s.Category != tt.category || s.Note != tt.note {
				t.Fatalf("unexpected reply: %+v", s)
			}
			if s.Amount == nil || !s.Amount.Equal(dec(tt.amount)) {
				t.Fatalf("unexpected amount: %v", s.Amount)
			}
			if len(f.pub.events) != 1 {
				t.Fatalf("expected one ledger event, got %v", f.pub.events)
			}
		})
	}
}

func TestTransaction_Validation(t *testing.T) {
	f := newFixture(t)
	if msg := mustFailure(t, f.run(t, "keluar makan siang")); !strings.Contains(msg, "Nominal") {
		t.Fatalf("unexpected message: %s", msg)
	}
	if msg := mustFailure(t, f.run(t, "keluar 10k kopi via @ovo")); !strings.Contains(msg, "@ovo") {
		t.Fatalf("unexpected message: %s", msg)
	}
	totals, _ := f.st.SumTotals(context.Background(), f.user.ID, time.Time{}, time.Time{})
	if !totals.Expense.IsZero() {
		t.Fatalf("validation failures must not write entries: %+v", totals)
	}
}

func TestTransaction_ViaWallet(t *testing.T) {
	f := newFixture(t)
	w := f.st.AddWallet(f.user.ID, "OVO", dec(0))
	mustStructured(t, f.run(t, "keluar 10k kopi @jajan via @ovo"))

	totals, _ := f.st.SumWalletTotals(context.Background(), f.user.ID, w.ID)
	if !totals.Expense.Equal(dec(10000)) {
		t.Fatalf("expected wallet expense, got %+v", totals)
	}
}

func TestUndo_ReversesOnlyLatestAcrossKinds(t *testing.T) {
	orders := map[string][]string{
		"goal last":   {"keluar 10k kopi @jajan", "hutang 20k @ani", "goal 1jt @liburan"},
		"ledger last": {"goal 1jt @liburan", "hutang 20k @ani", "keluar 10k kopi @jajan"},
		"debt last":   {"keluar 10k kopi @jajan", "goal 1jt @liburan", "hutang 20k @ani"},
	}
	for name, lines := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			for _, l := range lines {
				f.run(t, l)
			}
			s := mustStructured(t, f.run(t, "undo"))
			if s.Title != "Undo Berhasil" {
				t.Fatalf("unexpected reply: %+v", s)
			}

			totals, _ := f.st.SumTotals(ctx, f.user.ID, time.Time{}, time.Time{})
			debts, _ := f.st.ListActiveDebts(ctx, f.user.ID)
			goals, _ := f.st.ListGoals(ctx, f.user.ID)
			remaining := map[string]bool{
				"keluar": !totals.Expense.IsZero(),
				"hutang": len(debts) == 1,
				"goal":   len(goals) == 1,
			}
			lastVerb := strings.Fields(lines[len(lines)-1])[0]
			for verb, present := range remaining {
				if verb == lastVerb && present {
					t.Fatalf("%s should have been undone", verb)
				}
				if verb != lastVerb && !present {
					t.Fatalf("%s should have been kept", verb)
				}
			}
		})
	}
}

func TestUndo_NothingToUndo(t *testing.T) {
	f := newFixture(t)
	if msg := mustPlain(t, f.run(t, "batal")); !strings.Contains(msg, "Tidak ada") {
		t.Fatalf("unexpected reply: %s", msg)
	}
}

func TestTransfer_InsufficientBalanceWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.st.AddWallet(f.user.ID, "Dompet", dec(50000))
	f.st.AddWallet(f.user.ID, "Bank", dec(0))

	msg := mustFailure(t, f.run(t, "transfer 100k dari @Dompet ke @Bank"))
	if !strings.Contains(msg, "Rp 50.000") || !strings.Contains(msg, "kurang") {
		t.Fatalf("expected shortfall message, got %s", msg)
	}

	totals, _ := f.st.SumTotals(ctx, f.user.ID, time.Time{}, time.Time{})
	if !totals.Income.IsZero() || !totals.Expense.IsZero() {
		t.Fatalf("no records expected, got %+v", totals)
	}
	if cats, _ := f.st.ListCategories(ctx, f.user.ID); len(cats) != 0 {
		t.Fatalf("no categories expected, got %+v", cats)
	}
}

func TestTransfer_MovesBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.st.AddWallet(f.user.ID, "Dompet", dec(200000))
	dst := f.st.AddWallet(f.user.ID, "Bank BCA", dec(0))

	s := mustStructured(t, f.run(t, "transfer 100k dari @dompet ke @bank_bca"))
	if s.Category != TransferCategory {
		t.Fatalf("unexpected category: %+v", s)
	}

	out, _ := f.st.SumWalletTotals(ctx, f.user.ID, src.ID)
	in, _ := f.st.SumWalletTotals(ctx, f.user.ID, dst.ID)
	if !out.Net().Equal(dec(-100000)) || !in.Net().Equal(dec(100000)) {
		t.Fatalf("unexpected wallet totals: out=%+v in=%+v", out, in)
	}
	if len(f.pub.events) != 2 {
		t.Fatalf("expected both legs published, got %v", f.pub.events)
	}
}

func TestTransfer_Validation(t *testing.T) {
	f := newFixture(t)
	f.st.AddWallet(f.user.ID, "Dompet", dec(200000))

	mustFailure(t, f.run(t, "transfer 100k dari @dompet ke @dompet"))
	mustFailure(t, f.run(t, "transfer 100k @dompet"))
	mustFailure(t, f.run(t, "transfer 100k dari @dompet ke @nowhere"))
}

func TestDebt_MergesIntoActiveDebt(t *testing.T) {
	f := newFixture(t)
	f.run(t, "hutang 100k @budi makan")
	s := mustStructured(t, f.run(t, "debt 50k @Budi"))
	if !strings.Contains(s.Note, "Rp 150.000") {
		t.Fatalf("expected running total in note: %+v", s)
	}
	f.run(t, "piutang 30k @budi")

	debts, _ := f.st.ListActiveDebts(context.Background(), f.user.ID)
	if len(debts) != 2 {
		t.Fatalf("expected one payable and one receivable, got %+v", debts)
	}
	for _, d := range debts {
		if d.Kind == core.Payable && !d.Amount.Equal(dec(150000)) {
			t.Fatalf("unexpected payable: %+v", d)
		}
	}
}

func TestDebt_PayAndSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.run(t, "hutang 100k @budi")

	msg := mustFailure(t, f.run(t, "bayar 150k @budi"))
	if !strings.Contains(msg, "Rp 100.000") || !strings.Contains(msg, "kelebihan Rp 50.000") {
		t.Fatalf("unexpected overpayment message: %s", msg)
	}

	s := mustStructured(t, f.run(t, "bayar 40k @budi"))
	if !strings.Contains(s.Note, "Rp 60.000") {
		t.Fatalf("unexpected remaining: %+v", s)
	}
	s = mustStructured(t, f.run(t, "bayar 60k @budi"))
	if !strings.Contains(s.Note, "lunas") {
		t.Fatalf("expected paid note: %+v", s)
	}
	if debts, _ := f.st.ListActiveDebts(ctx, f.user.ID); len(debts) != 0 {
		t.Fatalf("expected no active debts, got %+v", debts)
	}

	mustFailure(t, f.run(t, "lunas @budi"))
	f.run(t, "loan 75k @ani")
	s = mustStructured(t, f.run(t, "lunas @ani"))
	if s.Title != "Piutang Lunas" || !s.Amount.Equal(dec(75000)) {
		t.Fatalf("unexpected settle reply: %+v", s)
	}
}

func TestBudget_Upsert(t *testing.T) {
	f := newFixture(t)
	f.run(t, "keluar 250k @makan")

	if s := mustStructured(t, f.run(t, "budget 1jt @makan")); s.Title != "Budget Ditetapkan" || !strings.Contains(s.Note, "25%") {
		t.Fatalf("unexpected reply: %+v", s)
	}
	if s := mustStructured(t, f.run(t, "budget 2jt @makan")); s.Title != "Budget Diperbarui" {
		t.Fatalf("unexpected reply: %+v", s)
	}
	budgets, _ := f.st.ListBudgets(context.Background(), f.user.ID)
	if len(budgets) != 1 || !budgets[0].Limit.Equal(dec(2000000)) {
		t.Fatalf("unexpected budgets: %+v", budgets)
	}
	mustFailure(t, f.run(t, "budget 1jt"))
}

func TestGoal_CreateAndFund(t *testing.T) {
	f := newFixture(t)
	mustStructured(t, f.run(t, "goal 1jt @liburan"))
	mustFailure(t, f.run(t, "goal 2jt @Liburan"))
	mustFailure(t, f.run(t, "isi goal 100k @rumah"))

	s := mustStructured(t, f.run(t, "isi goal 400k @liburan"))
	if !strings.Contains(s.Note, "40%") || strings.Contains(s.Note, "tercapai") {
		t.Fatalf("unexpected progress: %+v", s)
	}
	s = mustStructured(t, f.run(t, "isi goal enam ratus ribu @liburan"))
	if !strings.Contains(s.Note, "tercapai") {
		t.Fatalf("expected goal reached: %+v", s)
	}
}

func TestRecurring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mustFailure(t, f.run(t, "rutin 1.5jt keluar bulanan bayar kos"))
	mustFailure(t, f.run(t, "rutin 1.5jt bulanan @kos"))
	mustFailure(t, f.run(t, "rutin 1.5jt keluar @kos"))

	f.run(t, "keluar 10k @kos")
	s := mustStructured(t, f.run(t, "rutin 1.5jt keluar bulanan bayar kos"))
	if s.Category != "kos" || !strings.Contains(s.Note, "Setiap bulan") {
		t.Fatalf("unexpected reply: %+v", s)
	}
	rules, _ := f.st.ListActiveRules(ctx)
	if len(rules) != 1 || rules[0].Every != core.Monthly || rules[0].Type != core.Expense {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}

func TestDeleteCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.run(t, "keluar 10k @jajan")
	if _, err := f.st.CreateCategory(ctx, core.Category{UserID: f.user.ID, Name: "hobi", Type: core.Expense}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	mustFailure(t, f.run(t, "hapus kategori @jajan"))
	mustFailure(t, f.run(t, "hapus kategori @tidakada"))
	if msg := mustPlain(t, f.run(t, "hapus kategori @hobi")); !strings.Contains(msg, "hobi") {
		t.Fatalf("unexpected reply: %s", msg)
	}
	if _, err := f.st.FindCategory(ctx, f.user.ID, "hobi", core.Expense); err == nil {
		t.Fatal("category should be deleted")
	}
}

func TestReports(t *testing.T) {
	f := newFixture(t)
	f.st.AddWallet(f.user.ID, "Dompet", dec(100000))
	f.run(t, "masuk 5jt gaji @kerja")
	f.run(t, "keluar 1jt @makan via @dompet")
	f.run(t, "hutang 100k @budi")
	f.run(t, "goal 1jt @liburan")
	f.run(t, "budget 2jt @makan")

	tests := []struct {
		line string
		want []string
	}{
		{"cek saldo", []string{"Oktober 2026", "Pemasukan: Rp 5.000.000", "Pengeluaran: Rp 1.000.000", "Saldo total: Rp 4.100.000"}},
		{"cek hutang", []string{"Hutang ke Budi: Rp 100.000", "Total piutang: Rp 0"}},
		{"cek budget", []string{"🟢 makan: Rp 1.000.000 / Rp 2.000.000 (50%)"}},
		{"cek goal", []string{"Liburan: Rp 0 / Rp 1.000.000 (0%)"}},
		{"cek wallet", []string{"Dompet: -Rp 900.000"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out := mustPlain(t, f.run(t, tt.line))
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Fatalf("%q missing %q:\n%s", tt.line, w, out)
				}
			}
		})
	}
}

func TestFindOrCreateCategory_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.in.FindOrCreateCategory(ctx, f.user.ID, "kopi", core.Expense)
			if err != nil {
				t.Errorf("FindOrCreateCategory: %v", err)
				return
			}
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()

	cats, _ := f.st.ListCategories(ctx, f.user.ID)
	if len(cats) != 1 {
		t.Fatalf("expected a single category row, got %+v", cats)
	}
	for _, id := range ids {
		if id != cats[0].ID {
			t.Fatalf("all callers should resolve to %d, got %v", cats[0].ID, ids)
		}
	}
}

// racingStore simulates another process creating the category between the
// failed lookup and the insert.
type racingStore struct {
	*memory.Store
}

func (s racingStore) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if _, err := s.Store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return core.Category{}, core.ErrConflict
}

func TestFindOrCreateCategory_ConflictRefetches(t *testing.T) {
	st := memory.New()
	u := st.AddUser("628111", "Budi")
	in := NewInterpreter(racingStore{st})

	c, err := in.FindOrCreateCategory(context.Background(), u.ID, "kopi", core.Expense)
	if err != nil || c.ID == 0 || c.Name != "kopi" {
		t.Fatalf("unexpected result: %+v err=%v", c, err)
	}
}

func TestRecurringProcessor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.run(t, "rutin 10k keluar harian kopi pagi @kopi")
	f.run(t, "rutin 5jt masuk bulanan @gaji")

	pub := &fakePublisher{}
	p := NewRecurringProcessor(f.st, pub)
	now := f.clock.Now()

	n, err := p.ProcessDue(ctx, now)
	if err != nil || n != 2 {
		t.Fatalf("first run: n=%d err=%v", n, err)
	}
	if n, _ := p.ProcessDue(ctx, now.Add(time.Hour)); n != 0 {
		t.Fatalf("same day rerun should not create entries, got %d", n)
	}
	if n, _ := p.ProcessDue(ctx, now.AddDate(0, 0, 1)); n != 1 {
		t.Fatalf("next day only the daily rule is due, got %d", n)
	}

	totals, _ := f.st.SumTotals(ctx, f.user.ID, time.Time{}, time.Time{})
	if !totals.Expense.Equal(dec(20000)) || !totals.Income.Equal(dec(5000000)) {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if len(pub.events) != 3 || !strings.Contains(pub.events[0], "kopi") {
		t.Fatalf("unexpected events: %v", pub.events)
	}
}
