// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"money-tracker/internal/api/types"
	"money-tracker/internal/service"
	"money-tracker/internal/util"
)

// maxBodyBytes caps request bodies; ledger payloads are tiny.
const maxBodyBytes = 1 << 20

// LedgerHandler handles HTTP requests for the ledger.
type LedgerHandler struct {
	service         service.LedgerService
	defaultCurrency string
	logger          *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler. defaultCurrency is reported by
// GET /settings while no currency has been stored; it may be empty.
func NewLedgerHandler(svc service.LedgerService, defaultCurrency string, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service:         svc,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// Helper function to send JSON responses.
func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *LedgerHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error() // Validation messages are safe to show
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrStartingBalanceLocked):
		statusCode = http.StatusConflict
		message = "Starting balance is already set"
	default:
		// Storage diagnostics stay in the log.
		h.logger.ErrorContext(r.Context(), "Unhandled service error", "error", err, "path", r.URL.Path)
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

func (h *LedgerHandler) readBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return util.ErrInvalidInput
	}
	return decodeJSON(body, v)
}

// UpdateSettingsRequest represents the request body for PUT /settings.
type UpdateSettingsRequest struct {
	StartingBalance amountField `json:"starting_balance"`
	CurrencyCode    *string     `json:"currency_code"`
}

// GetSettings returns the starting balance and currency.
// GET /settings
func (h *LedgerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	currency := settings.CurrencyCode
	if currency == nil && h.defaultCurrency != "" {
		currency = &h.defaultCurrency
	}
	h.respondWithJSON(w, http.StatusOK, types.SettingsResponse{
		StartingBalance: settings.StartingBalance,
		CurrencyCode:    currency,
		Initialized:     settings.Initialized(),
	})
}

// UpdateSettings sets the starting balance; once set it may not change.
// PUT /settings
func (h *LedgerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := h.readBody(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if _, err := h.service.InitializeOrUpdateStartingBalance(r.Context(), service.UpdateSettingsInput{
		StartingBalance: string(req.StartingBalance),
		CurrencyCode:    req.CurrencyCode,
	}); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
}

// CreateTransactionRequest represents the request body for POST /transactions.
type CreateTransactionRequest struct {
	Kind        string      `json:"kind"`
	Amount      amountField `json:"amount"`
	Description string      `json:"description"`
	UsageTag    string      `json:"usage_tag"`
	OccurredAt  string      `json:"occurred_at"`
}

// ListTransactions returns the whole log, newest first.
// GET /transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListTransactions(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	data := make([]types.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		data = append(data, types.NewTransactionResponse(&transactions[i]))
	}
	h.respondWithJSON(w, http.StatusOK, types.ListResponse[types.TransactionResponse]{
		Data:  data,
		Count: len(data),
	})
}

// GetTransaction returns one transaction.
// GET /transactions/{id}
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.NewTransactionResponse(transaction))
}

// CreateTransaction records an income or expense.
// POST /transactions
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := h.readBody(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	occurredAt, err := parseTimestamp(req.OccurredAt)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	transaction, err := h.service.RecordTransaction(r.Context(), service.RecordTransactionInput{
		Kind:        req.Kind,
		Amount:      string(req.Amount),
		Description: req.Description,
		UsageTag:    req.UsageTag,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, types.CreatedResponse{Success: true, ID: transaction.ID})
}

// DeleteTransaction removes a transaction from the log.
// DELETE /transactions/{id}
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.service.RemoveTransaction(r.Context(), id); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
}

// GetBalance returns the derived ledger snapshot.
// GET /balance
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetBalanceView(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, snapshot)
}

// transactionID parses the {id} path segment. Only a non-integer is invalid;
// an integer that matches no row is left to the store to report as not found.
func transactionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: transaction id %q is not an integer", util.ErrInvalidInput, raw)
	}
	return id, nil
}
