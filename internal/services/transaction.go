package services

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/parser"
	"dompet/internal/reply"
)

// TransferCategory holds both legs of wallet transfers.
const TransferCategory = "Transfer"

func (in *Interpreter) transaction(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	if !cmd.HasAmount {
		return missingAmount(cmd.Verb + " 50k makan siang @makan"), nil
	}

	var walletID *int64
	if name, ok := cmd.TagAfter("via"); ok {
		w, err := in.store.FindWallet(ctx, user.ID, name)
		if errors.Is(err, core.ErrNotFound) {
			return reply.Errorf("Wallet @%s tidak ditemukan", name), nil
		}
		if err != nil {
			return nil, fmt.Errorf("find wallet: %w", err)
		}
		walletID = &w.ID
	}

	name := core.DefaultCategory
	if tag, ok := cmd.Tag(); ok {
		name = tag
	}
	cat, err := in.FindOrCreateCategory(ctx, user.ID, name, cmd.EntryType)
	if err != nil {
		return nil, err
	}

	note := parser.TitleCase(cmd.Note())
	if note == "" {
		note = parser.TitleCase(cat.Name)
	}
	if len(note) > maxNoteLength {
		return noteTooLong(), nil
	}

	now := in.now()
	entry, err := in.store.CreateEntry(ctx, core.LedgerEntry{
		UserID:     user.ID,
		Amount:     cmd.Amount,
		Type:       cmd.EntryType,
		CategoryID: cat.ID,
		WalletID:   walletID,
		Note:       note,
		Date:       now,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	in.publish(ctx, entry, cat.Name)

	title := "Pengeluaran Tercatat"
	if cmd.EntryType == core.Income {
		title = "Pemasukan Tercatat"
	}
	return reply.Structured{
		Title:    title,
		Amount:   reply.AmountOf(entry.Amount),
		Category: cat.Name,
		Note:     note,
		Date:     now,
	}, nil
}

func (in *Interpreter) transfer(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	const example = "transfer 100k dari @dompet ke @bank"
	if !cmd.HasAmount {
		return missingAmount(example), nil
	}
	fromName, okFrom := cmd.TagAfter("dari")
	toName, okTo := cmd.TagAfter("ke")
	if !okFrom || !okTo {
		return missingTag("Wallet asal dan tujuan", example), nil
	}

	from, err := in.store.FindWallet(ctx, user.ID, fromName)
	if errors.Is(err, core.ErrNotFound) {
		return reply.Errorf("Wallet @%s tidak ditemukan", fromName), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	to, err := in.store.FindWallet(ctx, user.ID, toName)
	if errors.Is(err, core.ErrNotFound) {
		return reply.Errorf("Wallet @%s tidak ditemukan", toName), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	if from.ID == to.ID {
		return reply.Errorf("Wallet asal dan tujuan tidak boleh sama"), nil
	}

	totals, err := in.store.SumWalletTotals(ctx, user.ID, from.ID)
	if err != nil {
		return nil, fmt.Errorf("sum wallet: %w", err)
	}
	balance := from.InitialBalance.Add(totals.Net())
	if balance.LessThan(cmd.Amount) {
		return reply.Errorf("Saldo %s tidak cukup. Saldo: %s, kurang %s",
			from.Name, core.FormatRupiah(balance), core.FormatRupiah(cmd.Amount.Sub(balance))), nil
	}

	outCat, err := in.FindOrCreateCategory(ctx, user.ID, TransferCategory, core.Expense)
	if err != nil {
		return nil, err
	}
	inCat, err := in.FindOrCreateCategory(ctx, user.ID, TransferCategory, core.Income)
	if err != nil {
		return nil, err
	}

	note := parser.TitleCase(cmd.Note())
	if note == "" {
		note = fmt.Sprintf("%s → %s", from.Name, to.Name)
	}
	if len(note) > maxNoteLength {
		return noteTooLong(), nil
	}

	now := in.now()
	leg := func(typ core.EntryType, categoryID, walletID int64) core.LedgerEntry {
		return core.LedgerEntry{
			UserID:     user.ID,
			Amount:     cmd.Amount,
			Type:       typ,
			CategoryID: categoryID,
			WalletID:   &walletID,
			Note:       note,
			Date:       now,
			CreatedAt:  now,
		}
	}
	out, inc, err := in.store.CreateTransfer(ctx, leg(core.Expense, outCat.ID, from.ID), leg(core.Income, inCat.ID, to.ID))
	if err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}
	in.publish(ctx, out, TransferCategory)
	in.publish(ctx, inc, TransferCategory)

	return reply.Structured{
		Title:    "Transfer Berhasil",
		Amount:   reply.AmountOf(cmd.Amount),
		Category: TransferCategory,
		Note:     fmt.Sprintf("%s → %s", from.Name, to.Name),
		Date:     now,
	}, nil
}
