// internal/api/router.go
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"money-tracker/internal/api/handler"
)

// PingFunc reports whether the backing store is reachable.
type PingFunc func(ctx context.Context) error

// NewRouter sets up and returns a new HTTP router.
func NewRouter(ledgerHandler *handler.LedgerHandler, ping PingFunc, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "Health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("UNAVAILABLE"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", ledgerHandler.GetSettings)
		r.Put("/", ledgerHandler.UpdateSettings)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", ledgerHandler.ListTransactions)
		r.Post("/", ledgerHandler.CreateTransaction)
		r.Get("/{id}", ledgerHandler.GetTransaction)
		r.Delete("/{id}", ledgerHandler.DeleteTransaction)
	})

	r.Get("/balance", ledgerHandler.GetBalance)

	return r
}
