package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/parser"
	"dompet/internal/reply"
)

// undo deletes the single most recent ledger entry, debt or goal.
func (in *Interpreter) undo(ctx context.Context, user core.User) (reply.Reply, error) {
	candidates := make([]core.Mutation, 0, len(core.MutationKinds))
	for _, kind := range core.MutationKinds {
		m, err := in.store.LatestMutation(ctx, kind, user.ID)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest %s: %w", kind, err)
		}
		candidates = append(candidates, m)
	}

	latest, ok := core.Latest(candidates)
	if !ok {
		return reply.Plain("ℹ️ Tidak ada transaksi yang bisa dibatalkan"), nil
	}
	if err := in.store.DeleteMutation(ctx, latest.Kind, latest.ID); err != nil {
		return nil, fmt.Errorf("delete %s %d: %w", latest.Kind, latest.ID, err)
	}

	label := latest.Kind.Label()
	if latest.Label != "" {
		label += " " + parser.TitleCase(latest.Label)
	}
	return reply.Structured{
		Title:  "Undo Berhasil",
		Amount: reply.AmountOf(latest.Amount),
		Note:   label + " dibatalkan",
		Date:   in.now(),
	}, nil
}

func (in *Interpreter) deleteCategory(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error) {
	name, ok := cmd.Tag()
	if !ok {
		return missingTag("Nama kategori", "hapus kategori @jajan"), nil
	}

	all, err := in.store.ListCategories(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var matches []core.Category
	for _, c := range all {
		if strings.EqualFold(c.Name, name) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return reply.Errorf("Kategori @%s tidak ditemukan", name), nil
	}

	used := 0
	for _, c := range matches {
		n, err := in.store.CategoryUsage(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("category usage: %w", err)
		}
		used += n
	}
	if used > 0 {
		return reply.Errorf("Kategori @%s masih dipakai oleh %d transaksi/rutin dan tidak bisa dihapus", name, used), nil
	}

	for _, c := range matches {
		if err := in.store.DeleteCategory(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("delete category %d: %w", c.ID, err)
		}
	}
	return reply.Plain(fmt.Sprintf("🗑️ Kategori *%s* dihapus", matches[0].Name)), nil
}
