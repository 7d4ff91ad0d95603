// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "money-tracker/internal/api"
	"money-tracker/internal/api/handler"
	"money-tracker/internal/config"
	"money-tracker/internal/events"
	"money-tracker/internal/repository"
	"money-tracker/internal/repository/sqlstore"
	"money-tracker/internal/service"
	"money-tracker/internal/util"
	"money-tracker/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	SettingsRepository    repository.SettingsRepository
	TransactionRepository repository.TransactionRepository

	// Events
	Publisher events.Publisher

	// Services
	LedgerService service.LedgerService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.InitializeWithConfig(ctx, cfg)
}

// InitializeWithConfig initializes all components from an already loaded configuration.
func (app *Application) InitializeWithConfig(ctx context.Context, cfg *config.AppConfig) error {
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "driver", cfg.DB.Driver)

	// 3. Migrate and connect to Database
	if cfg.AutoMigrate {
		if err := db.RunMigrations(cfg.DB); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Logger.Info("Database migrations applied.")
	}
	database, err := db.NewDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.", "dsn", cfg.DB.Redacted())

	// 4. Initialize Repositories
	app.SettingsRepository = sqlstore.NewSettingsRepository()
	app.TransactionRepository = sqlstore.NewTransactionRepository()
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize event publisher
	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	app.Publisher = publisher
	app.Logger.Info("Event publisher initialized.", "broker", cfg.Events.Broker)

	// 6. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.SettingsRepository,
		app.TransactionRepository,
		app.Publisher,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		service.Options{
			AllowBalanceOverwrite: cfg.Ledger.AllowBalanceOverwrite,
			PublishTimeout:        cfg.Ledger.PublishTimeout,
			Logger:                app.Logger,
		},
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, cfg.Ledger.DefaultCurrency, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.DB.PingContext, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Logger.Warn("Failed to close event publisher", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
