package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"dompet/internal/core"
	"dompet/internal/parser"
	"dompet/internal/storage"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and wallets in the SQLite database",
}

var userAddCmd = &cobra.Command{
	Use:     "add <phone> <name>",
	Short:   "Register a phone number",
	Example: "  dompet-cli user add 628111 Budi Santoso",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		user, err := repo.AddUser(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("add user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %d registered for %s\n", user.ID, user.Phone)
		return nil
	},
}

var walletAddCmd = &cobra.Command{
	Use:     "wallet <phone> <name> [initial balance]",
	Short:   "Add a wallet for a registered phone",
	Example: "  dompet-cli user wallet 628111 bca 2jt",
	Args:    cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		initial := decimal.Zero
		if len(args) == 3 {
			v, ok := parser.ParseAmount(args[2])
			if !ok {
				return fmt.Errorf("%q is not an amount", args[2])
			}
			initial = v
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx := cmd.Context()
		user, err := repo.FindUserByPhone(ctx, args[0])
		if err != nil {
			return fmt.Errorf("find user %s: %w", args[0], err)
		}
		wallet, err := repo.AddWallet(ctx, user.ID, args[1], initial)
		if err != nil {
			return fmt.Errorf("add wallet: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wallet %s added with %s\n", wallet.Name, core.FormatRupiah(wallet.InitialBalance))
		return nil
	},
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(walletAddCmd)
}

func openRepository() (*storage.SQLiteRepository, error) {
	cfg := effectiveConfig()
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, nil
}
