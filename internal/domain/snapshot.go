// internal/domain/snapshot.go
package domain

import "github.com/shopspring/decimal"

// Snapshot is the derived view of the ledger. It is never stored.
type Snapshot struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	StartingBalance  decimal.Decimal `json:"starting_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// Derive computes the ledger totals from the full transaction set and the settings row.
// The balance is not clamped and may be negative.
func Derive(transactions []Transaction, settings Settings) Snapshot {
	income := decimal.Zero
	expenses := decimal.Zero
	for _, t := range transactions {
		switch t.Kind {
		case KindIncome:
			income = income.Add(t.Amount)
		case KindExpense:
			expenses = expenses.Add(t.Amount)
		}
	}

	return Snapshot{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		CurrentBalance:   settings.StartingBalance.Add(income).Sub(expenses),
		StartingBalance:  settings.StartingBalance,
		TransactionCount: len(transactions),
	}
}
