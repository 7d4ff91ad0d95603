// internal/repository/sqlstore/settings_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"money-tracker/internal/domain"
	"money-tracker/internal/repository"
)

// settingsID is the primary key of the only settings row.
const settingsID = 1

type settingsRow struct {
	StartingBalance decimal.Decimal `db:"starting_balance"`
	CurrencyCode    sql.NullString  `db:"currency_code"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// SettingsRepository implements repository.SettingsRepository on top of sqlx.
type SettingsRepository struct{}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository() repository.SettingsRepository {
	return &SettingsRepository{}
}

// GetSettings returns the singleton row. An absent row is a valid state and is
// reported as domain.DefaultSettings(), never as not found.
func (r *SettingsRepository) GetSettings(ctx context.Context, q repository.DBExecutor) (*domain.Settings, error) {
	var row settingsRow
	query := `SELECT starting_balance, currency_code, created_at, updated_at FROM settings WHERE id = ?`
	err := q.GetContext(ctx, &row, q.Rebind(query), settingsID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			settings := domain.DefaultSettings()
			return &settings, nil
		}
		return nil, storageError("get settings", err)
	}

	settings := &domain.Settings{
		StartingBalance: row.StartingBalance,
		State:           domain.SettingsInitialized,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.CurrencyCode.Valid {
		code := row.CurrencyCode.String
		settings.CurrencyCode = &code
	}
	return settings, nil
}

// SaveSettings overwrites the singleton row. created_at is kept from the first write.
func (r *SettingsRepository) SaveSettings(ctx context.Context, q repository.DBExecutor, settings *domain.Settings) error {
	stampSettings(settings)
	query := `INSERT INTO settings (id, starting_balance, currency_code, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT (id) DO UPDATE SET
                  starting_balance = excluded.starting_balance,
                  currency_code = excluded.currency_code,
                  updated_at = excluded.updated_at`
	_, err := q.ExecContext(ctx, q.Rebind(query),
		settingsID, settings.StartingBalance, settings.CurrencyCode, settings.CreatedAt, settings.UpdatedAt)
	if err != nil {
		return storageError("save settings", err)
	}
	settings.State = domain.SettingsInitialized
	return nil
}

// InitializeSettings inserts the singleton row unless it already exists.
// The returned flag is true only for the caller that created it.
func (r *SettingsRepository) InitializeSettings(ctx context.Context, q repository.DBExecutor, settings *domain.Settings) (bool, error) {
	stampSettings(settings)
	query := `INSERT INTO settings (id, starting_balance, currency_code, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT (id) DO NOTHING`
	result, err := q.ExecContext(ctx, q.Rebind(query),
		settingsID, settings.StartingBalance, settings.CurrencyCode, settings.CreatedAt, settings.UpdatedAt)
	if err != nil {
		return false, storageError("initialize settings", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, storageError("get rows affected after initializing settings", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}
	settings.State = domain.SettingsInitialized
	return true, nil
}

func stampSettings(settings *domain.Settings) {
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
}
