package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MutationKind identifies the record types that undo can reverse.
type MutationKind string

const (
	MutationLedger MutationKind = "ledger"
	MutationDebt   MutationKind = "debt"
	MutationGoal   MutationKind = "goal"
)

// MutationKinds lists every kind undo searches, in a stable order.
var MutationKinds = []MutationKind{MutationLedger, MutationDebt, MutationGoal}

// Mutation is the common view undo has over ledger entries, debts and goals.
type Mutation struct {
	Kind      MutationKind
	ID        int64
	Amount    decimal.Decimal
	Label     string
	CreatedAt time.Time
}

// Latest returns the most recently created mutation. Ties keep the earlier
// element so the result is deterministic.
func Latest(candidates []Mutation) (Mutation, bool) {
	var (
		best  Mutation
		found bool
	)
	for _, m := range candidates {
		if !found || m.CreatedAt.After(best.CreatedAt) {
			best = m
			found = true
		}
	}
	return best, found
}

func (k MutationKind) Label() string {
	switch k {
	case MutationLedger:
		return "Transaksi"
	case MutationDebt:
		return "Hutang/Piutang"
	case MutationGoal:
		return "Goal"
	}
	return string(k)
}
