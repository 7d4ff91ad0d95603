// internal/domain/settings.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"money-tracker/internal/util"
)

// SettingsState tells whether the starting balance has ever been written.
type SettingsState string

const (
	SettingsUninitialized SettingsState = "uninitialized"
	SettingsInitialized   SettingsState = "initialized"
)

// Settings is the singleton ledger configuration row.
type Settings struct {
	StartingBalance decimal.Decimal `json:"starting_balance"`
	CurrencyCode    *string         `json:"currency_code,omitempty"`
	State           SettingsState   `json:"state"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DefaultSettings is what an empty ledger reports before the first write.
func DefaultSettings() Settings {
	return Settings{
		StartingBalance: decimal.Zero,
		State:           SettingsUninitialized,
	}
}

// Initialized reports whether a settings row exists.
func (s Settings) Initialized() bool {
	return s.State == SettingsInitialized
}

// NewSettings validates raw input and builds a Settings value to be stored.
func NewSettings(startingBalance string, currencyCode *string) (*Settings, error) {
	balance, err := ParseAmount(startingBalance)
	if err != nil {
		return nil, err
	}
	code, err := NormalizeCurrency(currencyCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Settings{
		StartingBalance: balance,
		CurrencyCode:    code,
		State:           SettingsInitialized,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NormalizeCurrency upper-cases an optional ISO 4217 code and checks it is known.
// A nil or blank code stays nil.
func NormalizeCurrency(code *string) (*string, error) {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil, nil
	}
	c := strings.ToUpper(strings.TrimSpace(*code))
	if money.GetCurrency(c) == nil {
		return nil, fmt.Errorf("%w: unknown currency code %q", util.ErrInvalidInput, *code)
	}
	return &c, nil
}
