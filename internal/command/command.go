// Package command maps the leading tokens of a chat line to a handler.
package command

import (
	"strings"

	"dompet/internal/core"
	"dompet/internal/parser"
)

// Kind identifies which handler processes a command.
type Kind string

const (
	Transaction    Kind = "transaction"
	DebtCreate     Kind = "debt_create"
	DebtPay        Kind = "debt_pay"
	DebtSettle     Kind = "debt_settle"
	BudgetSet      Kind = "budget_set"
	GoalCreate     Kind = "goal_create"
	GoalFund       Kind = "goal_fund"
	Recurring      Kind = "recurring"
	Transfer       Kind = "transfer"
	Undo           Kind = "undo"
	DeleteCategory Kind = "delete_category"
	CheckBalance   Kind = "check_balance"
	CheckDebts     Kind = "check_debts"
	CheckBudgets   Kind = "check_budgets"
	CheckGoals     Kind = "check_goals"
	CheckWallets   Kind = "check_wallets"
)

// Command is one parsed chat line.
type Command struct {
	Kind Kind
	// Verb is the matched verb text, e.g. "keluar" or "cek saldo".
	Verb string
	*parser.Fields

	// Set for Transaction and DebtCreate only.
	EntryType core.EntryType
	DebtKind  core.DebtKind
}

type entry struct {
	kind      Kind
	entryType core.EntryType
	debtKind  core.DebtKind
}

// Two-token verbs are matched before single-token ones.
var twoTokenVerbs = map[string]entry{
	"cek saldo":      {kind: CheckBalance},
	"cek hutang":     {kind: CheckDebts},
	"cek budget":     {kind: CheckBudgets},
	"cek goal":       {kind: CheckGoals},
	"cek wallet":     {kind: CheckWallets},
	"isi goal":       {kind: GoalFund},
	"hapus kategori": {kind: DeleteCategory},
}

var oneTokenVerbs = map[string]entry{
	"keluar":   {kind: Transaction, entryType: core.Expense},
	"out":      {kind: Transaction, entryType: core.Expense},
	"expense":  {kind: Transaction, entryType: core.Expense},
	"masuk":    {kind: Transaction, entryType: core.Income},
	"in":       {kind: Transaction, entryType: core.Income},
	"income":   {kind: Transaction, entryType: core.Income},
	"hutang":   {kind: DebtCreate, debtKind: core.Payable},
	"debt":     {kind: DebtCreate, debtKind: core.Payable},
	"piutang":  {kind: DebtCreate, debtKind: core.Receivable},
	"loan":     {kind: DebtCreate, debtKind: core.Receivable},
	"bayar":    {kind: DebtPay},
	"lunas":    {kind: DebtSettle},
	"budget":   {kind: BudgetSet},
	"goal":     {kind: GoalCreate},
	"rutin":    {kind: Recurring},
	"transfer": {kind: Transfer},
	"undo":     {kind: Undo},
	"batal":    {kind: Undo},
}

// Parse recognizes the verb of a line and extracts its amount span.
// It returns false when the line does not start with a known verb.
func Parse(line string) (Command, bool) {
	tokens := parser.Tokenize(line)
	if len(tokens) == 0 {
		return Command{}, false
	}

	if len(tokens) >= 2 {
		verb := tokens[0] + " " + tokens[1]
		if e, ok := twoTokenVerbs[verb]; ok {
			return build(e, verb, tokens, 2), true
		}
	}
	if e, ok := oneTokenVerbs[tokens[0]]; ok {
		return build(e, tokens[0], tokens, 1), true
	}
	return Command{}, false
}

func build(e entry, verb string, tokens []string, verbLen int) Command {
	return Command{
		Kind:      e.kind,
		Verb:      verb,
		Fields:    parser.Extract(tokens, verbLen),
		EntryType: e.entryType,
		DebtKind:  e.debtKind,
	}
}

// String returns the normalized line, used in logs.
func (c Command) String() string {
	return strings.Join(c.Tokens, " ")
}
