// internal/repository/sqlstore/transaction_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"money-tracker/internal/domain"
	"money-tracker/internal/repository"
	"money-tracker/internal/util"
)

const transactionColumns = `id, kind, amount, description, usage_tag, occurred_at, created_at, updated_at`

// TransactionRepository implements repository.TransactionRepository on top of sqlx.
// Queries are written with '?' placeholders and rebound per driver, so the same
// code serves PostgreSQL and SQLite.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// ListTransactions returns the full log ordered by occurred_at descending.
// Rows sharing an occurred_at keep insertion order.
func (r *TransactionRepository) ListTransactions(ctx context.Context, q repository.DBExecutor) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY occurred_at DESC, id ASC`
	if err := q.SelectContext(ctx, &transactions, q.Rebind(query)); err != nil {
		return nil, storageError("list transactions", err)
	}
	for i := range transactions {
		normalizeTimes(&transactions[i])
	}
	return transactions, nil
}

// GetTransaction retrieves a transaction by its ID.
func (r *TransactionRepository) GetTransaction(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`
	err := q.GetContext(ctx, &transaction, q.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, util.ErrNotFound)
		}
		return nil, storageError(fmt.Sprintf("get transaction %d", id), err)
	}
	normalizeTimes(&transaction)
	return &transaction, nil
}

// CreateTransaction validates the transaction and inserts it, setting its ID.
// Invalid input never reaches the database.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	if err := transaction.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = now
	}
	transaction.UpdatedAt = transaction.CreatedAt

	query := `INSERT INTO transactions (kind, amount, description, usage_tag, occurred_at, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := q.QueryRowContext(ctx, q.Rebind(query),
		transaction.Kind,
		transaction.Amount,
		transaction.Description,
		transaction.UsageTag,
		transaction.OccurredAt.UTC(),
		transaction.CreatedAt,
		transaction.UpdatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		return storageError("create transaction", err)
	}
	return nil
}

// DeleteTransaction removes a transaction. A missing row is reported as util.ErrNotFound.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM transactions WHERE id = ?`), id)
	if err != nil {
		return storageError(fmt.Sprintf("delete transaction %d", id), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storageError(fmt.Sprintf("get rows affected after deleting transaction %d", id), err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, util.ErrNotFound)
	}
	return nil
}

func normalizeTimes(t *domain.Transaction) {
	t.OccurredAt = t.OccurredAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
}
