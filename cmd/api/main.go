// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	app "money-tracker/internal"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		application.Logger.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	if err := run(ctx, application); err != nil {
		application.Logger.Error("Ledger API stopped with error", "error", err)
		os.Exit(1)
	}
	application.Logger.Info("Ledger API stopped.")
}

// run serves the ledger API until ctx is cancelled, then drains in-flight
// requests and releases the database and broker connections.
func run(ctx context.Context, application *app.Application) error {
	cfg := application.Config
	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.ServerPort),
		Handler:      application.HTTPHandler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		application.Logger.Info("Ledger API listening",
			"addr", server.Addr,
			"database", cfg.DB.Redacted(),
			"events", cfg.Events.Broker,
			"allow_balance_overwrite", cfg.Ledger.AllowBalanceOverwrite)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		application.Logger.Info("Shutting down HTTP server...", "timeout", cfg.HTTP.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		serverErr := server.Shutdown(shutdownCtx)
		return errors.Join(serverErr, application.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
