// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"money-tracker/internal/domain"
)

// TransactionRepository defines the append/delete-only transaction log.
// There is deliberately no update method.
type TransactionRepository interface {
	// ListTransactions returns every transaction, newest occurred_at first.
	ListTransactions(ctx context.Context, q DBExecutor) ([]domain.Transaction, error)
	// GetTransaction returns one transaction or util.ErrNotFound.
	GetTransaction(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// CreateTransaction validates and stores the transaction, filling in its ID.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// DeleteTransaction removes a transaction or returns util.ErrNotFound.
	DeleteTransaction(ctx context.Context, q DBExecutor, id int64) error
}
