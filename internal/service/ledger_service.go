// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"money-tracker/internal/domain"
	"money-tracker/internal/events"
	"money-tracker/internal/repository"
	"money-tracker/internal/util"
	"money-tracker/pkg/db"
)

// LedgerService defines the ledger operations exposed to the API and the CLI.
type LedgerService interface {
	GetBalanceView(ctx context.Context) (*domain.Snapshot, error)
	GetSettings(ctx context.Context) (*domain.Settings, error)
	InitializeOrUpdateStartingBalance(ctx context.Context, input UpdateSettingsInput) (*domain.Settings, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, error)
	RemoveTransaction(ctx context.Context, id int64) error
}

// RecordTransactionInput carries raw, unvalidated transaction fields.
type RecordTransactionInput struct {
	Kind        string
	Amount      string
	Description string
	UsageTag    string
	OccurredAt  time.Time
}

// UpdateSettingsInput carries raw, unvalidated settings fields.
type UpdateSettingsInput struct {
	StartingBalance string
	CurrencyCode    *string
}

// Options tunes policy that is not dictated by storage.
type Options struct {
	// AllowBalanceOverwrite disables the set-once rule for the starting balance.
	AllowBalanceOverwrite bool
	// PublishTimeout bounds how long a mutation waits on the event broker.
	// Zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
	Logger         *slog.Logger
}

// DefaultPublishTimeout is used when Options.PublishTimeout is zero.
const DefaultPublishTimeout = 2 * time.Second

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For single-statement work on the pool
	settingsRepo    repository.SettingsRepository
	transactionRepo repository.TransactionRepository
	publisher       events.Publisher
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	opts            Options
	publishTimeout  time.Duration
	logger          *slog.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	settingsRepo repository.SettingsRepository,
	transactionRepo repository.TransactionRepository,
	publisher events.Publisher,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	opts Options,
) LedgerService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publishTimeout := opts.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &ledgerService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		settingsRepo:    settingsRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		opts:            opts,
		publishTimeout:  publishTimeout,
		logger:          logger.With("component", "ledger"),
	}
}

// GetBalanceView derives the ledger totals from the current log and settings.
//
// The two reads run concurrently on separate pooled connections and are not
// wrapped in a shared transaction, so a snapshot taken while another caller is
// writing may pair the settings and the log from slightly different moments.
// Each half is individually consistent; nothing is cached between calls.
func (s *ledgerService) GetBalanceView(ctx context.Context) (*domain.Snapshot, error) {
	var (
		transactions []domain.Transaction
		settings     *domain.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.transactionRepo.ListTransactions(gctx, s.dbExecutor)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.settingsRepo.GetSettings(gctx, s.dbExecutor)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get balance view: %w", err)
	}

	snapshot := domain.Derive(transactions, *settings)
	return &snapshot, nil
}

// GetSettings returns the settings row or the uninitialized default.
func (s *ledgerService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsRepo.GetSettings(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// InitializeOrUpdateStartingBalance writes the settings row.
//
// The first successful write fixes the starting balance. Later writes may only
// repeat the same balance (for example to change the currency code) unless
// Options.AllowBalanceOverwrite is set; otherwise util.ErrStartingBalanceLocked.
func (s *ledgerService) InitializeOrUpdateStartingBalance(ctx context.Context, input UpdateSettingsInput) (*domain.Settings, error) {
	settings, err := domain.NewSettings(input.StartingBalance, input.CurrencyCode)
	if err != nil {
		return nil, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("update settings: failed to begin transaction: %w: %w", util.ErrStorageUnavailable, err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("update settings: transaction controller does not implement DBExecutor")
	}

	current, err := s.settingsRepo.GetSettings(ctx, txExecutor)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	if !current.Initialized() {
		created, err := s.settingsRepo.InitializeSettings(ctx, txExecutor, settings)
		if err != nil {
			return nil, fmt.Errorf("update settings: %w", err)
		}
		if created {
			return s.commitSettings(ctx, txController, settings, true)
		}
		// Another caller initialized the ledger between our read and insert.
		current, err = s.settingsRepo.GetSettings(ctx, txExecutor)
		if err != nil {
			return nil, fmt.Errorf("update settings: %w", err)
		}
	}

	if !s.opts.AllowBalanceOverwrite && !current.StartingBalance.Equal(settings.StartingBalance) {
		return nil, fmt.Errorf("update settings: %w (current %s)", util.ErrStartingBalanceLocked, current.StartingBalance)
	}

	settings.CreatedAt = current.CreatedAt
	if err := s.settingsRepo.SaveSettings(ctx, txExecutor, settings); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.commitSettings(ctx, txController, settings, false)
}

func (s *ledgerService) commitSettings(ctx context.Context, txController db.TxController, settings *domain.Settings, initialized bool) (*domain.Settings, error) {
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("update settings: failed to commit transaction: %w: %w", util.ErrStorageUnavailable, err)
	}
	if initialized {
		s.logger.InfoContext(ctx, "Ledger initialized", "starting_balance", settings.StartingBalance)
	}
	s.publish(ctx, events.NewEvent(events.TypeSettingsUpdated, settings))
	return settings, nil
}

// ListTransactions returns the whole log, newest first.
func (s *ledgerService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	transactions, err := s.transactionRepo.ListTransactions(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// GetTransaction returns a single transaction.
func (s *ledgerService) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransaction(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return transaction, nil
}

// RecordTransaction validates and appends a transaction to the log.
// The ledger does not require the starting balance to be set first.
func (s *ledgerService) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, error) {
	transaction, err := domain.NewTransaction(input.Kind, input.Amount, input.Description, input.UsageTag, input.OccurredAt)
	if err != nil {
		return nil, err
	}

	if err := s.transactionRepo.CreateTransaction(ctx, s.dbExecutor, transaction); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		"id", transaction.ID,
		"kind", transaction.Kind,
		"amount", transaction.Amount)
	s.publish(ctx, events.NewEvent(events.TypeTransactionRecorded, transaction))
	return transaction, nil
}

// RemoveTransaction deletes a transaction; a missing id yields util.ErrNotFound.
func (s *ledgerService) RemoveTransaction(ctx context.Context, id int64) error {
	if err := s.transactionRepo.DeleteTransaction(ctx, s.dbExecutor, id); err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction removed", "id", id)
	s.publish(ctx, events.NewEvent(events.TypeTransactionRemoved, map[string]int64{"id": id}))
	return nil
}

func (s *ledgerService) publish(ctx context.Context, event events.Event) {
	pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event", "type", event.Type, "error", err)
	}
}
