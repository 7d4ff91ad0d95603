// internal/domain/transaction.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations

	"money-tracker/internal/util"
)

// Kind defines the direction of a ledger movement.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind converts raw input into a Kind, rejecting unknown values.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindIncome, KindExpense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: kind must be %q or %q, got %q", util.ErrInvalidInput, KindIncome, KindExpense, raw)
	}
}

// Transaction represents a single income or expense in the ledger.
// Once stored it is never modified; the only mutation is deletion.
type Transaction struct {
	ID          int64           `db:"id" json:"id"`
	Kind        Kind            `db:"kind" json:"kind"`
	Amount      decimal.Decimal `db:"amount" json:"amount"` // NUMERIC(20, 4) in DB
	Description string          `db:"description" json:"description"`
	UsageTag    string          `db:"usage_tag" json:"usage_tag"`
	OccurredAt  time.Time       `db:"occurred_at" json:"occurred_at"` // Caller supplied, may be past or future
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// NewTransaction validates raw input and builds a Transaction ready to be stored.
func NewTransaction(kind, amount, description, usageTag string, occurredAt time.Time) (*Transaction, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx := &Transaction{
		Kind:        k,
		Amount:      amt,
		Description: strings.TrimSpace(description),
		UsageTag:    strings.TrimSpace(usageTag),
		OccurredAt:  occurredAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Validate checks the invariants of a built transaction.
func (t *Transaction) Validate() error {
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if err := checkAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", util.ErrInvalidInput)
	}
	if strings.TrimSpace(t.UsageTag) == "" {
		return fmt.Errorf("%w: usage tag is required", util.ErrInvalidInput)
	}
	if t.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", util.ErrInvalidInput)
	}
	return nil
}

// ParseAmount parses a non-negative decimal amount such as "1500" or "12.50".
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", util.ErrInvalidInput)
	}
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", util.ErrInvalidInput, raw)
	}
	if err := checkAmount(amt); err != nil {
		return decimal.Zero, err
	}
	return amt, nil
}

// Amounts are stored as NUMERIC(20, 4); anything that does not fit exactly is rejected
// rather than rounded by the database.
const (
	AmountScale         = 4
	AmountIntegerDigits = 16
)

var maxAmount = decimal.New(1, AmountIntegerDigits)

func checkAmount(amt decimal.Decimal) error {
	if amt.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", util.ErrInvalidInput)
	}
	if !amt.Equal(amt.Truncate(AmountScale)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", util.ErrInvalidInput, amt, AmountScale)
	}
	if amt.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: amount %s has more than %d integer digits", util.ErrInvalidInput, amt, AmountIntegerDigits)
	}
	return nil
}
