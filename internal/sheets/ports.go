package sheets

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// LedgerRow is one ledger entry as mirrored to a spreadsheet.
type LedgerRow struct {
	ID       int64
	UserID   int64
	Date     time.Time
	Type     core.EntryType
	Category string
	Note     string
	Amount   decimal.Decimal
}

func (r LedgerRow) Validate() error {
	if r.ID <= 0 {
		return errors.New("ledger row needs an entry ID")
	}
	if !r.Amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if r.Type != core.Income && r.Type != core.Expense {
		return core.ErrInvalidType
	}
	return nil
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendLedger(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	// LedgerLister returns mirrored rows for a given month.
	LedgerLister interface {
		ListLedger(ctx context.Context, year int, month time.Month) ([]LedgerRow, error)
	}
)
