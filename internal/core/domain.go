package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Monthly RepetitionTypes = "monthly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const (
	Income  EntryType = "INCOME"
	Expense EntryType = "EXPENSE"
)

const (
	Payable    DebtKind = "PAYABLE"    // hutang: the user owes someone
	Receivable DebtKind = "RECEIVABLE" // piutang: someone owes the user
)

const (
	DebtActive DebtStatus = "ACTIVE"
	DebtPaid   DebtStatus = "PAID"
)

// DefaultCategory is used by transactions that carry no @tag.
const DefaultCategory = "Umum"

type (
	RepetitionTypes string
	EntryType       string
	DebtKind        string
	DebtStatus      string

	User struct {
		ID    int64
		Phone string
		Name  string
	}

	Wallet struct {
		ID             int64
		UserID         int64
		Name           string
		InitialBalance decimal.Decimal
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
		Type   EntryType
	}

	LedgerEntry struct {
		ID         int64
		UserID     int64
		Amount     decimal.Decimal
		Type       EntryType
		CategoryID int64
		WalletID   *int64
		Note       string
		Date       time.Time
		CreatedAt  time.Time
	}

	Debt struct {
		ID        int64
		UserID    int64
		Kind      DebtKind
		Person    string
		Amount    decimal.Decimal // remaining balance
		Original  decimal.Decimal
		Status    DebtStatus
		Note      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Limit      decimal.Decimal
	}

	Goal struct {
		ID        int64
		UserID    int64
		Name      string
		Target    decimal.Decimal
		Current   decimal.Decimal
		CreatedAt time.Time
	}

	RecurringRule struct {
		ID            int64
		UserID        int64
		Amount        decimal.Decimal
		Type          EntryType
		Every         RepetitionTypes
		CategoryID    int64
		Note          string
		StartDate     time.Time
		LastExecution time.Time
		Active        bool
		CreatedAt     time.Time
	}

	// Totals aggregates ledger amounts by direction.
	Totals struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidType       = errors.New("invalid entry type")
	ErrInvalidRepetition = errors.New("invalid repetition type")
)

// Net returns income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Add folds an amount of the given direction into the totals.
func (t Totals) Add(typ EntryType, amount decimal.Decimal) Totals {
	switch typ {
	case Income:
		t.Income = t.Income.Add(amount)
	case Expense:
		t.Expense = t.Expense.Add(amount)
	}
	return t
}

func (t EntryType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (r RepetitionTypes) Validate() error {
	switch r {
	case Daily, Weekly, Monthly:
		return nil
	}
	return ErrInvalidRepetition
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (e LedgerEntry) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if len(e.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Person) == "" {
		return ErrEmptyName
	}
	if d.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	switch d.Kind {
	case Payable, Receivable:
	default:
		return errors.New("invalid debt kind")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (re RecurringRule) Validate() error {
	if !re.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := re.Type.Validate(); err != nil {
		return err
	}
	if err := re.Every.Validate(); err != nil {
		return err
	}
	if re.StartDate.IsZero() {
		return errors.New("invalid start date: date cannot be zero")
	}
	return nil
}

// Label is the Indonesian word used in replies for the debt kind.
func (k DebtKind) Label() string {
	if k == Receivable {
		return "Piutang"
	}
	return "Hutang"
}

// Reached reports whether the goal's saved amount meets its target.
func (g Goal) Reached() bool {
	return g.Current.GreaterThanOrEqual(g.Target)
}
