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

func counterparty(d core.Debt) string {
	if d.Kind == core.Receivable {
		return "dari " + parser.TitleCase(d.Person)
	}
	return "ke " + parser.TitleCase(d.Person)
}

func (in *Interpreter) createDebt(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	example := cmd.Verb + " 100k @budi pinjam makan"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	person, ok := cmd.Tag()
	if !ok {
		return missingTag("Nama orang", example), nil
	}
	note := parser.TitleCase(cmd.Note())
	if len(note) > maxNoteLength {
		return noteTooLong(), nil
	}

	now := in.now()
	d, err := in.store.FindActiveDebt(ctx, user.ID, cmd.DebtKind, person)
	switch {
	case err == nil:
		d.Amount = d.Amount.Add(cmd.Amount)
		d.Original = d.Original.Add(cmd.Amount)
		if note != "" {
			d.Note = note
		}
		d.UpdatedAt = now
		if err := in.store.UpdateDebt(ctx, d); err != nil {
			return nil, fmt.Errorf("update debt: %w", err)
		}
	case errors.Is(err, core.ErrNotFound):
		d, err = in.store.CreateDebt(ctx, core.Debt{
			UserID:    user.ID,
			Kind:      cmd.DebtKind,
			Person:    person,
			Amount:    cmd.Amount,
			Original:  cmd.Amount,
			Status:    core.DebtActive,
			Note:      note,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("create debt: %w", err)
		}
	default:
		return nil, fmt.Errorf("find debt: %w", err)
	}

	summary := fmt.Sprintf("Total %s %s: %s", cmd.DebtKind.Label(), counterparty(d), core.FormatRupiah(d.Amount))
	if note != "" {
		summary = note + " · " + summary
	}
	return reply.Structured{
		Title:  cmd.DebtKind.Label() + " Tercatat",
		Amount: reply.AmountOf(cmd.Amount),
		Note:   summary,
		Date:   now,
	}, nil
}

// findAnyActiveDebt looks for an active payable first, then a receivable.
func (in *Interpreter) findAnyActiveDebt(ctx context.Context, userID int64, person string) (core.Debt, error) {
	var lastErr error
	for _, kind := range []core.DebtKind{core.Payable, core.Receivable} {
		d, err := in.store.FindActiveDebt(ctx, userID, kind, person)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return core.Debt{}, fmt.Errorf("find debt: %w", err)
		}
		lastErr = err
	}
	return core.Debt{}, lastErr
}

func (in *Interpreter) payDebt(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	const example = "bayar 50k @budi"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	person, ok := cmd.Tag()
	if !ok {
		return missingTag("Nama orang", example), nil
	}

	d, err := in.findAnyActiveDebt(ctx, user.ID, person)
	if errors.Is(err, core.ErrNotFound) {
		return reply.Errorf("Tidak ada hutang/piutang aktif dengan @%s", person), nil
	}
	if err != nil {
		return nil, err
	}

	if cmd.Amount.GreaterThan(d.Amount) {
		return reply.Errorf("Pembayaran melebihi sisa %s %s. Sisa: %s, kelebihan %s",
			d.Kind.Label(), counterparty(d), core.FormatRupiah(d.Amount), core.FormatRupiah(cmd.Amount.Sub(d.Amount))), nil
	}

	now := in.now()
	d.Amount = d.Amount.Sub(cmd.Amount)
	if d.Amount.IsZero() {
		d.Status = core.DebtPaid
	}
	d.UpdatedAt = now
	if err := in.store.UpdateDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}

	note := fmt.Sprintf("Sisa %s %s: %s", d.Kind.Label(), counterparty(d), core.FormatRupiah(d.Amount))
	if d.Status == core.DebtPaid {
		note = fmt.Sprintf("%s %s lunas 🎉", d.Kind.Label(), counterparty(d))
	}
	return reply.Structured{
		Title:  "Pembayaran " + d.Kind.Label() + " Tercatat",
		Amount: reply.AmountOf(cmd.Amount),
		Note:   note,
		Date:   now,
	}, nil
}

func (in *Interpreter) settleDebt(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	person, ok := cmd.Tag()
	if !ok {
		return missingTag("Nama orang", "lunas @budi"), nil
	}

	d, err := in.findAnyActiveDebt(ctx, user.ID, person)
	if errors.Is(err, core.ErrNotFound) {
		return reply.Errorf("Tidak ada hutang/piutang aktif dengan @%s", person), nil
	}
	if err != nil {
		return nil, err
	}

	now := in.now()
	settled := d.Amount
	d.Amount = decimal.Zero
	d.Status = core.DebtPaid
	d.UpdatedAt = now
	if err := in.store.UpdateDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}

	return reply.Structured{
		Title:  d.Kind.Label() + " Lunas",
		Amount: reply.AmountOf(settled),
		Note:   fmt.Sprintf("%s %s ditandai lunas", d.Kind.Label(), counterparty(d)),
		Date:   now,
	}, nil
}
