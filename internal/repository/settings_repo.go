// internal/repository/settings_repo.go
package repository

import (
	"context"

	"money-tracker/internal/domain"
)

// SettingsRepository owns the singleton settings row.
type SettingsRepository interface {
	// GetSettings returns the row, or domain.DefaultSettings() when it does not exist yet.
	GetSettings(ctx context.Context, q DBExecutor) (*domain.Settings, error)
	// SaveSettings overwrites the row, creating it if needed.
	SaveSettings(ctx context.Context, q DBExecutor, settings *domain.Settings) error
	// InitializeSettings creates the row only if it is absent and reports whether it did.
	InitializeSettings(ctx context.Context, q DBExecutor, settings *domain.Settings) (bool, error)
}
