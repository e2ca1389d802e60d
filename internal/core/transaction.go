package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	// Transaction is the single persisted entity. The local store owns the
	// canonical copy; the remote backend holds a best-effort mirror.
	Transaction struct {
		ID          string
		UserID      string
		Title       string
		Description string
		Amount      decimal.Decimal
		Kind        Kind
		Category    string
		OccurredAt  time.Time
		CreatedAt   time.Time
		Synced      bool
	}
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrDuplicateID   = errors.New("duplicate transaction id")
	ErrInvalidPeriod = errors.New("unrecognized period")
	ErrEmptyExport   = errors.New("no transactions to export")
	ErrSyncInFlight  = errors.New("sync already in progress")

	ErrEmptyTitle     = errors.New("empty title")
	ErrEmptyCategory  = errors.New("empty category")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidKind    = errors.New("kind must be income or expense")
	ErrZeroOccurredAt = errors.New("transaction date cannot be zero")
)

// NewTransaction builds a transaction the way the mobile form does: fresh
// random id, creation timestamp now, not yet synced.
func NewTransaction(title string, amount decimal.Decimal, kind Kind, category string, occurredAt time.Time) Transaction {
	return Transaction{
		ID:         uuid.NewString(),
		Title:      title,
		Amount:     amount,
		Kind:       kind,
		Category:   category,
		OccurredAt: occurredAt,
		CreatedAt:  time.Now(),
		Synced:     false,
	}
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.OccurredAt.IsZero() {
		return ErrZeroOccurredAt
	}
	return nil
}
