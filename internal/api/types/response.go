// internal/api/types/response.go
package types

import (
	"time"

	"github.com/shopspring/decimal"

	"money-tracker/internal/domain"
)

// ListResponse defines a generic structure for list API responses.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CreatedResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

type SettingsResponse struct {
	StartingBalance decimal.Decimal `json:"starting_balance"`
	CurrencyCode    *string         `json:"currency_code,omitempty"`
	Initialized     bool            `json:"initialized"`
}

// TransactionResponse is the wire form of a transaction.
type TransactionResponse struct {
	ID          int64           `json:"id"`
	Kind        domain.Kind     `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	UsageTag    string          `json:"usage_tag"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description,
		UsageTag:    t.UsageTag,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
