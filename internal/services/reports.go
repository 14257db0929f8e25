package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/parser"
	"dompet/internal/reply"
)

func (in *Interpreter) balanceReport(ctx context.Context, user core.User) (reply.Reply, error) {
	from, to := in.monthRange()
	month, err := in.store.SumTotals(ctx, user.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum month: %w", err)
	}
	all, err := in.store.SumTotals(ctx, user.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("sum all: %w", err)
	}
	wallets, err := in.store.ListWallets(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	balance := all.Net()
	for _, w := range wallets {
		balance = balance.Add(w.InitialBalance)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💰 *Ringkasan %s %d*\n", core.MonthName(from.Month()), from.Year())
	fmt.Fprintf(&b, "📈 Pemasukan: %s\n", core.FormatRupiah(month.Income))
	fmt.Fprintf(&b, "📉 Pengeluaran: %s\n", core.FormatRupiah(month.Expense))
	fmt.Fprintf(&b, "💵 Selisih bulan ini: %s\n\n", core.FormatRupiah(month.Net()))
	fmt.Fprintf(&b, "🏦 Saldo total: %s", core.FormatRupiah(balance))
	return reply.Plain(b.String()), nil
}

func (in *Interpreter) debtReport(ctx context.Context, user core.User) (reply.Reply, error) {
	debts, err := in.store.ListActiveDebts(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	if len(debts) == 0 {
		return reply.Plain("✅ Tidak ada hutang atau piutang aktif"), nil
	}

	payable, receivable := decimal.Zero, decimal.Zero
	var b strings.Builder
	b.WriteString("💸 *Hutang & Piutang Aktif*\n")
	for _, d := range debts {
		fmt.Fprintf(&b, "\n• %s %s: %s", d.Kind.Label(), counterparty(d), core.FormatRupiah(d.Amount))
		if d.Kind == core.Receivable {
			receivable = receivable.Add(d.Amount)
		} else {
			payable = payable.Add(d.Amount)
		}
	}
	fmt.Fprintf(&b, "\n\nTotal hutang: %s\nTotal piutang: %s", core.FormatRupiah(payable), core.FormatRupiah(receivable))
	return reply.Plain(b.String()), nil
}

func (in *Interpreter) budgetReport(ctx context.Context, user core.User) (reply.Reply, error) {
	budgets, err := in.store.ListBudgets(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return reply.Plain("ℹ️ Belum ada budget. Contoh: budget 1jt @makan"), nil
	}
	cats, err := in.store.ListCategories(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	from, to := in.monthRange()
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Budget %s %d*\n", core.MonthName(from.Month()), from.Year())
	for _, bg := range budgets {
		spent, err := in.store.SumCategoryExpenses(ctx, user.ID, bg.CategoryID, from, to)
		if err != nil {
			return nil, fmt.Errorf("sum category: %w", err)
		}
		pct := core.Percent(spent, bg.Limit)
		icon := "🟢"
		switch {
		case pct >= 100:
			icon = "🔴"
		case pct >= 80:
			icon = "🟡"
		}
		fmt.Fprintf(&b, "\n%s %s: %s / %s (%d%%)", icon, names[bg.CategoryID],
			core.FormatRupiah(spent), core.FormatRupiah(bg.Limit), pct)
	}
	return reply.Plain(b.String()), nil
}

func (in *Interpreter) goalReport(ctx context.Context, user core.User) (reply.Reply, error) {
	goals, err := in.store.ListGoals(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if len(goals) == 0 {
		return reply.Plain("ℹ️ Belum ada goal. Contoh: goal 10jt @liburan"), nil
	}

	var b strings.Builder
	b.WriteString("🎯 *Goal Tabungan*\n")
	for _, g := range goals {
		mark := ""
		if g.Reached() {
			mark = " ✅"
		}
		fmt.Fprintf(&b, "\n• %s: %s / %s (%d%%)%s", parser.TitleCase(g.Name),
			core.FormatRupiah(g.Current), core.FormatRupiah(g.Target), core.Percent(g.Current, g.Target), mark)
	}
	return reply.Plain(b.String()), nil
}

func (in *Interpreter) walletReport(ctx context.Context, user core.User) (reply.Reply, error) {
	wallets, err := in.store.ListWallets(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	if len(wallets) == 0 {
		return reply.Plain("ℹ️ Belum ada wallet terdaftar"), nil
	}

	total := decimal.Zero
	var b strings.Builder
	b.WriteString("👛 *Saldo Wallet*\n")
	for _, w := range wallets {
		t, err := in.store.SumWalletTotals(ctx, user.ID, w.ID)
		if err != nil {
			return nil, fmt.Errorf("sum wallet: %w", err)
		}
		balance := w.InitialBalance.Add(t.Net())
		total = total.Add(balance)
		fmt.Fprintf(&b, "\n• %s: %s", w.Name, core.FormatRupiah(balance))
	}
	fmt.Fprintf(&b, "\n\nTotal: %s", core.FormatRupiah(total))
	return reply.Plain(b.String()), nil
}
