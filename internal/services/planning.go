package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/parser"
	"dompet/internal/reply"
)

var intervals = map[string]core.RepetitionTypes{
	"harian":   core.Daily,
	"mingguan": core.Weekly,
	"bulanan":  core.Monthly,
}

var intervalLabels = map[core.RepetitionTypes]string{
	core.Daily:   "Setiap hari",
	core.Weekly:  "Setiap minggu",
	core.Monthly: "Setiap bulan",
}

var directions = map[string]core.EntryType{
	"keluar": core.Expense,
	"masuk":  core.Income,
}

func (in *Interpreter) setBudget(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	const example = "budget 1jt @makan"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	name, ok := cmd.Tag()
	if !ok {
		return missingTag("Kategori", example), nil
	}

	cat, err := in.FindOrCreateCategory(ctx, user.ID, name, core.Expense)
	if err != nil {
		return nil, err
	}

	title := "Budget Diperbarui"
	b, err := in.store.FindBudget(ctx, user.ID, cat.ID)
	switch {
	case err == nil:
		b.Limit = cmd.Amount
		if err := in.store.UpdateBudget(ctx, b); err != nil {
			return nil, fmt.Errorf("update budget: %w", err)
		}
	case errors.Is(err, core.ErrNotFound):
		title = "Budget Ditetapkan"
		b, err = in.store.CreateBudget(ctx, core.Budget{UserID: user.ID, CategoryID: cat.ID, Limit: cmd.Amount})
		if err != nil {
			return nil, fmt.Errorf("create budget: %w", err)
		}
	default:
		return nil, fmt.Errorf("find budget: %w", err)
	}

	from, to := in.monthRange()
	spent, err := in.store.SumCategoryExpenses(ctx, user.ID, cat.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum category: %w", err)
	}

	return reply.Structured{
		Title:    title,
		Amount:   reply.AmountOf(b.Limit),
		Category: cat.Name,
		Note:     fmt.Sprintf("Terpakai bulan ini: %s (%d%%)", core.FormatRupiah(spent), core.Percent(spent, b.Limit)),
		Date:     in.now(),
	}, nil
}

func (in *Interpreter) createGoal(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	const example = "goal 10jt @liburan"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	name, ok := cmd.Tag()
	if !ok {
		return missingTag("Nama goal", example), nil
	}

	if _, err := in.store.FindGoal(ctx, user.ID, name); err == nil {
		return reply.Errorf("Goal @%s sudah ada. Gunakan: isi goal <nominal> @%s", name, name), nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("find goal: %w", err)
	}

	now := in.now()
	g, err := in.store.CreateGoal(ctx, core.Goal{
		UserID:    user.ID,
		Name:      name,
		Target:    cmd.Amount,
		Current:   decimal.Zero,
		CreatedAt: now,
	})
	if errors.Is(err, core.ErrConflict) {
		return reply.Errorf("Goal @%s sudah ada. Gunakan: isi goal <nominal> @%s", name, name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	return reply.Structured{
		Title:  "Goal Dibuat",
		Amount: reply.AmountOf(g.Target),
		Note:   fmt.Sprintf("🎯 %s", parser.TitleCase(g.Name)),
		Date:   now,
	}, nil
}

func (in *Interpreter) fundGoal(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	const example = "isi goal 500k @liburan"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	name, ok := cmd.Tag()
	if !ok {
		return missingTag("Nama goal", example), nil
	}

	g, err := in.store.FindGoal(ctx, user.ID, name)
	if errors.Is(err, core.ErrNotFound) {
		return reply.Errorf("Goal @%s tidak ditemukan", name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find goal: %w", err)
	}

	g.Current = g.Current.Add(cmd.Amount)
	if err := in.store.UpdateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	note := fmt.Sprintf("Progres %s: %s / %s (%d%%)", parser.TitleCase(g.Name),
		core.FormatRupiah(g.Current), core.FormatRupiah(g.Target), core.Percent(g.Current, g.Target))
	if g.Reached() {
		note += " 🎉 Goal tercapai!"
	}
	return reply.Structured{
		Title:  "Goal Terisi",
		Amount: reply.AmountOf(cmd.Amount),
		Note:   note,
		Date:   in.now(),
	}, nil
}

func (in *Interpreter) createRecurring(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	const example = "rutin 1.5jt keluar bulanan @kos bayar kos"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	dir, ok := cmd.Keyword("keluar", "masuk")
	if !ok {
		return reply.Errorf("Jenis wajib diisi (keluar/masuk). Contoh: %s", example), nil
	}
	every, ok := cmd.Keyword("harian", "mingguan", "bulanan")
	if !ok {
		return reply.Errorf("Interval wajib diisi (harian/mingguan/bulanan). Contoh: %s", example), nil
	}
	typ := directions[dir]

	var cat core.Category
	if name, ok := cmd.Tag(); ok {
		c, err := in.FindOrCreateCategory(ctx, user.ID, name, typ)
		if err != nil {
			return nil, err
		}
		cat = c
	} else {
		// Without a tag the rule falls back to the user's first category of
		// that direction.
		cats, err := in.store.ListCategories(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		found := false
		for _, c := range cats {
			if c.Type == typ {
				cat, found = c, true
				break
			}
		}
		if !found {
			return reply.Errorf("Belum ada kategori %s. Tambahkan @kategori, contoh: %s", dir, example), nil
		}
	}

	note := parser.TitleCase(cmd.Note())
	if note == "" {
		note = parser.TitleCase(cat.Name)
	}
	if len(note) > maxNoteLength {
		return noteTooLong(), nil
	}

	now := in.now()
	rule, err := in.store.CreateRule(ctx, core.RecurringRule{
		UserID:     user.ID,
		Amount:     cmd.Amount,
		Type:       typ,
		Every:      intervals[every],
		CategoryID: cat.ID,
		Note:       note,
		StartDate:  now,
		Active:     true,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("create recurring rule: %w", err)
	}

	return reply.Structured{
		Title:    "Transaksi Rutin Dibuat",
		Amount:   reply.AmountOf(rule.Amount),
		Category: cat.Name,
		Note:     fmt.Sprintf("%s · %s", note, intervalLabels[rule.Every]),
		Date:     now,
	}, nil
}
