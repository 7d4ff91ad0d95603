// internal/service/ledger_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"money-tracker/internal/domain"
	"money-tracker/internal/events"
	"money-tracker/internal/util"
	"money-tracker/pkg/db"
)

type fixture struct {
	settingsRepo    *MockSettingsRepository
	transactionRepo *MockTransactionRepository
	publisher       *MockPublisher
	dbBeginner      *MockDBBeginner
	dbExecutor      *MockDBExecutor
	txController    *MockTxController
	service         LedgerService
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		settingsRepo:    new(MockSettingsRepository),
		transactionRepo: new(MockTransactionRepository),
		publisher:       new(MockPublisher),
		dbBeginner:      new(MockDBBeginner),
		dbExecutor:      new(MockDBExecutor),
		txController:    new(MockTxController),
	}
	f.service = NewLedgerService(
		f.dbBeginner,
		f.dbExecutor,
		f.settingsRepo,
		f.transactionRepo,
		f.publisher,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return f.txController, nil
		},
		func(tx db.TxController) error {
			return f.txController.Commit()
		},
		func(tx db.TxController) {
			_ = f.txController.Rollback()
		},
		opts,
	)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	mock.AssertExpectationsForObjects(t, f.settingsRepo, f.transactionRepo, f.publisher, f.dbBeginner, f.dbExecutor, f.txController)
}

func initialized(balance int64) *domain.Settings {
	return &domain.Settings{
		StartingBalance: decimal.NewFromInt(balance),
		State:           domain.SettingsInitialized,
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == eventType })
}

func TestRecordTransaction(t *testing.T) {
	at := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})

		f.transactionRepo.On("CreateTransaction", ctx, f.dbExecutor, mock.AnythingOfType("*domain.Transaction")).
			Run(func(args mock.Arguments) { args.Get(2).(*domain.Transaction).ID = 42 }).
			Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, eventOfType(events.TypeTransactionRecorded)).Return(nil).Once()

		tx, err := f.service.RecordTransaction(ctx, RecordTransactionInput{
			Kind: "income", Amount: "50000", Description: "Salary", UsageTag: "work", OccurredAt: at,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
		assert.Equal(t, domain.KindIncome, tx.Kind)
		assert.True(t, decimal.NewFromInt(50000).Equal(tx.Amount))
		f.assertExpectations(t)
	})

	for _, input := range []RecordTransactionInput{
		{Kind: "income", Amount: "abc", Description: "x", UsageTag: "y", OccurredAt: at},
		{Kind: "transfer", Amount: "10", Description: "x", UsageTag: "y", OccurredAt: at},
		{Kind: "expense", Amount: "10", Description: "", UsageTag: "y", OccurredAt: at},
	} {
		t.Run("Invalid_"+input.Kind+"_"+input.Amount, func(t *testing.T) {
			f := newFixture(Options{})

			tx, err := f.service.RecordTransaction(context.Background(), input)

			assert.ErrorIs(t, err, util.ErrInvalidInput)
			assert.Nil(t, tx)
			f.transactionRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}

	t.Run("StorageUnavailable", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		storageErr := fmt.Errorf("failed to create transaction: %w: %w", util.ErrStorageUnavailable, errors.New("connection refused"))
		f.transactionRepo.On("CreateTransaction", ctx, f.dbExecutor, mock.Anything).Return(storageErr).Once()

		_, err := f.service.RecordTransaction(ctx, RecordTransactionInput{
			Kind: "expense", Amount: "1", Description: "x", UsageTag: "y", OccurredAt: at,
		})

		assert.ErrorIs(t, err, util.ErrStorageUnavailable)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("PublishIsBoundedByTimeout", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{PublishTimeout: 50 * time.Millisecond})
		f.transactionRepo.On("CreateTransaction", ctx, f.dbExecutor, mock.Anything).Return(nil).Once()
		f.publisher.On("Publish", mock.MatchedBy(func(c context.Context) bool {
			deadline, ok := c.Deadline()
			return ok && time.Until(deadline) <= 50*time.Millisecond
		}), mock.Anything).Return(nil).Once()

		_, err := f.service.RecordTransaction(ctx, RecordTransactionInput{
			Kind: "income", Amount: "1", Description: "x", UsageTag: "y", OccurredAt: at,
		})

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.transactionRepo.On("CreateTransaction", ctx, f.dbExecutor, mock.Anything).Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		tx, err := f.service.RecordTransaction(ctx, RecordTransactionInput{
			Kind: "expense", Amount: "1", Description: "x", UsageTag: "y", OccurredAt: at,
		})

		assert.NoError(t, err)
		assert.NotNil(t, tx)
		f.assertExpectations(t)
	})
}

func TestRemoveTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.transactionRepo.On("DeleteTransaction", ctx, f.dbExecutor, int64(7)).Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, eventOfType(events.TypeTransactionRemoved)).Return(nil).Once()

		assert.NoError(t, f.service.RemoveTransaction(ctx, 7))
		f.assertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.transactionRepo.On("DeleteTransaction", ctx, f.dbExecutor, int64(999)).
			Return(fmt.Errorf("transaction 999: %w", util.ErrNotFound)).Once()

		err := f.service.RemoveTransaction(ctx, 999)

		assert.ErrorIs(t, err, util.ErrNotFound)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})
}

func TestGetBalanceView(t *testing.T) {
	t.Run("DerivesFromStores", func(t *testing.T) {
		f := newFixture(Options{})
		f.transactionRepo.On("ListTransactions", mock.Anything, f.dbExecutor).Return([]domain.Transaction{
			{ID: 1, Kind: domain.KindIncome, Amount: decimal.NewFromInt(50000)},
			{ID: 2, Kind: domain.KindExpense, Amount: decimal.NewFromInt(20000)},
		}, nil).Once()
		f.settingsRepo.On("GetSettings", mock.Anything, f.dbExecutor).Return(initialized(100000), nil).Once()

		snap, err := f.service.GetBalanceView(context.Background())

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50000).Equal(snap.TotalIncome))
		assert.True(t, decimal.NewFromInt(20000).Equal(snap.TotalExpenses))
		assert.True(t, decimal.NewFromInt(130000).Equal(snap.CurrentBalance))
		assert.True(t, decimal.NewFromInt(100000).Equal(snap.StartingBalance))
		f.assertExpectations(t)
	})

	t.Run("StorageFailure", func(t *testing.T) {
		f := newFixture(Options{})
		f.transactionRepo.On("ListTransactions", mock.Anything, f.dbExecutor).Return(nil, util.ErrStorageUnavailable).Once()
		f.settingsRepo.On("GetSettings", mock.Anything, f.dbExecutor).Return(initialized(0), nil).Maybe()

		snap, err := f.service.GetBalanceView(context.Background())

		assert.ErrorIs(t, err, util.ErrStorageUnavailable)
		assert.Nil(t, snap)
	})
}

func TestInitializeOrUpdateStartingBalance(t *testing.T) {
	idr := "IDR"

	t.Run("FirstWriteInitializes", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(&domain.Settings{State: domain.SettingsUninitialized}, nil).Once()
		f.settingsRepo.On("InitializeSettings", ctx, f.txController, mock.AnythingOfType("*domain.Settings")).Return(true, nil).Once()
		f.txController.On("Commit").Return(nil).Once()
		f.txController.On("Rollback").Return(nil).Maybe()
		f.publisher.On("Publish", mock.Anything, eventOfType(events.TypeSettingsUpdated)).Return(nil).Once()

		settings, err := f.service.InitializeOrUpdateStartingBalance(ctx, UpdateSettingsInput{StartingBalance: "100000", CurrencyCode: &idr})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100000).Equal(settings.StartingBalance))
		assert.Equal(t, "IDR", *settings.CurrencyCode)
		f.settingsRepo.AssertNotCalled(t, "SaveSettings", mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("SameBalanceMayChangeCurrency", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		current := initialized(100000)
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(current, nil).Once()
		f.settingsRepo.On("SaveSettings", ctx, f.txController, mock.MatchedBy(func(s *domain.Settings) bool {
			return s.CurrencyCode != nil && *s.CurrencyCode == "USD" && s.CreatedAt.Equal(current.CreatedAt)
		})).Return(nil).Once()
		f.txController.On("Commit").Return(nil).Once()
		f.txController.On("Rollback").Return(nil).Maybe()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		usd := "usd"
		_, err := f.service.InitializeOrUpdateStartingBalance(ctx, UpdateSettingsInput{StartingBalance: "100000.00", CurrencyCode: &usd})

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("DifferentBalanceIsLocked", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(initialized(100000), nil).Once()
		f.txController.On("Rollback").Return(nil).Once()

		settings, err := f.service.InitializeOrUpdateStartingBalance(ctx, UpdateSettingsInput{StartingBalance: "5"})

		assert.ErrorIs(t, err, util.ErrStartingBalanceLocked)
		assert.Nil(t, settings)
		f.txController.AssertNotCalled(t, "Commit")
		f.settingsRepo.AssertNotCalled(t, "SaveSettings", mock.Anything, mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("OverwriteAllowedByOption", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{AllowBalanceOverwrite: true})
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(initialized(100000), nil).Once()
		f.settingsRepo.On("SaveSettings", ctx, f.txController, mock.Anything).Return(nil).Once()
		f.txController.On("Commit").Return(nil).Once()
		f.txController.On("Rollback").Return(nil).Maybe()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		settings, err := f.service.InitializeOrUpdateStartingBalance(ctx, UpdateSettingsInput{StartingBalance: "5"})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(5).Equal(settings.StartingBalance))
		f.assertExpectations(t)
	})

	t.Run("LostInitializationRace", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(&domain.Settings{State: domain.SettingsUninitialized}, nil).Once()
		f.settingsRepo.On("InitializeSettings", ctx, f.txController, mock.Anything).Return(false, nil).Once()
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(initialized(100), nil).Once()
		f.txController.On("Rollback").Return(nil).Once()

		_, err := f.service.InitializeOrUpdateStartingBalance(ctx, UpdateSettingsInput{StartingBalance: "200"})

		assert.ErrorIs(t, err, util.ErrStartingBalanceLocked)
		f.txController.AssertNotCalled(t, "Commit")
		f.assertExpectations(t)
	})

	t.Run("InvalidInputBeginsNothing", func(t *testing.T) {
		f := newFixture(Options{})

		_, err := f.service.InitializeOrUpdateStartingBalance(context.Background(), UpdateSettingsInput{StartingBalance: "-1"})

		assert.ErrorIs(t, err, util.ErrInvalidInput)
		f.txController.AssertNotCalled(t, "Rollback")
		f.settingsRepo.AssertNotCalled(t, "GetSettings", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("CommitFailure", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(Options{})
		f.settingsRepo.On("GetSettings", ctx, f.txController).Return(&domain.Settings{State: domain.SettingsUninitialized}, nil).Once()
		f.settingsRepo.On("InitializeSettings", ctx, f.txController, mock.Anything).Return(true, nil).Once()
		f.txController.On("Commit").Return(errors.New("disk I/O error")).Once()
		f.txController.On("Rollback").Return(nil).Once()

		_, err := f.service.InitializeOrUpdateStartingBalance(ctx, UpdateSettingsInput{StartingBalance: "10"})

		assert.ErrorIs(t, err, util.ErrStorageUnavailable)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})
}
