package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse <amount>",
	Short: "Parse an amount the way chat commands do",
	Example: `  dompet-cli parse 1,5jt
  dompet-cli parse dua ratus ribu`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.Join(args, " ")
		amount, ok := parser.ParseAmount(input)
		if !ok {
			return fmt.Errorf("%q is not an amount", input)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", amount.String(), core.FormatRupiah(amount))
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <line>",
	Short: "Show how a chat line is dispatched",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := strings.Join(args, " ")
		c, ok := command.Parse(line)
		if !ok {
			return fmt.Errorf("no command matches %q", line)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "kind:   %s\n", c.Kind)
		fmt.Fprintf(out, "verb:   %s\n", c.Verb)
		if c.HasAmount {
			fmt.Fprintf(out, "amount: %s (tokens %d-%d)\n", core.FormatRupiah(c.Amount), c.AmountAt.Start, c.AmountAt.End)
		}
		if tag, ok := c.Tag(); ok {
			fmt.Fprintf(out, "tag:    %s\n", tag)
		}
		if note := c.Note(); note != "" {
			fmt.Fprintf(out, "note:   %s\n", note)
		}
		return nil
	},
}
