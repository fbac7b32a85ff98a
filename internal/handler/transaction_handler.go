package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
	"retail-ledger/internal/service"
)

type TransactionHandler struct {
	ledgerService LedgerService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ledgerService LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

type TransferRequest struct {
	SourceAccountID      string `json:"source_account_id" validate:"required,max=32"`
	DestinationAccountID string `json:"destination_account_id" validate:"required,max=32"`
	Amount               string `json:"amount" validate:"required,positive_amount"`
	Description          string `json:"description,omitempty" validate:"max=255"`
	IdempotencyKey       string `json:"idempotency_key,omitempty" validate:"omitempty,uuid"`
}

type TransactionResponse struct {
	TransactionID        string    `json:"transaction_id"`
	SourceAccountID      string    `json:"source_account_id"`
	DestinationAccountID string    `json:"destination_account_id"`
	Amount               string    `json:"amount"`
	Description          string    `json:"description"`
	Timestamp            time.Time `json:"timestamp"`
	Kind                 string    `json:"kind,omitempty"`
	IdempotencyKey       *string   `json:"idempotency_key,omitempty"`
}

type StatisticsResponse struct {
	TotalUsers               int                   `json:"total_users"`
	CustomerCount            int                   `json:"customer_count"`
	AdminCount               int                   `json:"admin_count"`
	TotalAccounts            int                   `json:"total_accounts"`
	TotalBalance             string                `json:"total_balance"`
	AverageBalance           string                `json:"average_balance"`
	AccountTypeCounts        map[string]int        `json:"account_type_counts"`
	TotalTransactions        int                   `json:"total_transactions"`
	TotalTransactionAmount   string                `json:"total_transaction_amount"`
	AverageTransactionAmount string                `json:"average_transaction_amount"`
	LargestTransaction       *TransactionResponse  `json:"largest_transaction,omitempty"`
	RecentTransactions       []TransactionResponse `json:"recent_transactions"`
}

func toTransactionResponse(t domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID:        t.ID,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Amount:               t.Amount.StringFixed(domain.CentPlaces),
		Description:          t.Description,
		Timestamp:            t.Timestamp,
	}
	if t.IdempotencyKey != nil {
		keyStr := t.IdempotencyKey.String()
		resp.IdempotencyKey = &keyStr
	}
	return resp
}

// newestFirst copies and orders transactions for presentation.
func newestFirst(txs []domain.Transaction) []TransactionResponse {
	sorted := append([]domain.Transaction(nil), txs...)
	domain.SortNewestFirst(sorted)
	out := make([]TransactionResponse, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid amount format").WithDetails(err.Error()))
		return
	}

	var idempotencyKey *uuid.UUID
	if req.IdempotencyKey != "" {
		key, err := uuid.Parse(req.IdempotencyKey)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid idempotency_key format").WithDetails(err.Error()))
			return
		}
		idempotencyKey = &key
	}

	transaction, err := h.ledgerService.Transfer(r.Context(), service.TransferRequest{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               amount,
		Description:          req.Description,
		IdempotencyKey:       idempotencyKey,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*transaction))
}

func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["account_id"]

	filter, appErr := parseFilter(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	entries, err := h.ledgerService.History(r.Context(), accountID, filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	kinds := make(map[string]domain.HistoryKind, len(entries))
	txs := make([]domain.Transaction, 0, len(entries))
	for _, e := range entries {
		kinds[e.ID] = e.Kind
		txs = append(txs, e.Transaction)
	}
	resp := newestFirst(txs)
	for i := range resp {
		resp[i].Kind = string(kinds[resp[i].TransactionID])
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *TransactionHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	filter, appErr := parseFilter(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	filter.AccountID = r.URL.Query().Get("account_id")

	txs, err := h.ledgerService.AllTransactions(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newestFirst(txs))
}

func (h *TransactionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	recent := 0
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, errors.ErrInvalidInput.WithDetails("recent must be a non-negative integer"))
			return
		}
		recent = n
	}

	stats, err := h.ledgerService.Statistics(r.Context(), recent)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := StatisticsResponse{
		TotalUsers:               stats.TotalUsers,
		CustomerCount:            stats.CustomerCount,
		AdminCount:               stats.AdminCount,
		TotalAccounts:            stats.TotalAccounts,
		TotalBalance:             stats.TotalBalance.StringFixed(domain.CentPlaces),
		AverageBalance:           stats.AverageBalance.StringFixed(domain.CentPlaces),
		AccountTypeCounts:        stats.AccountTypeCounts,
		TotalTransactions:        stats.TotalTransactions,
		TotalTransactionAmount:   stats.TotalTransactionAmount.StringFixed(domain.CentPlaces),
		AverageTransactionAmount: stats.AverageTransactionAmount.StringFixed(domain.CentPlaces),
		RecentTransactions:       make([]TransactionResponse, 0, len(stats.RecentTransactions)),
	}
	if stats.LargestTransaction != nil {
		largest := toTransactionResponse(*stats.LargestTransaction)
		resp.LargestTransaction = &largest
	}
	for _, t := range stats.RecentTransactions {
		resp.RecentTransactions = append(resp.RecentTransactions, toTransactionResponse(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseFilter reads from, to, min_amount and max_amount. Dates accept
// RFC 3339 or YYYY-MM-DD.
func parseFilter(r *http.Request) (domain.TransactionFilter, *errors.AppError) {
	var filter domain.TransactionFilter
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, errors.ErrInvalidInput.WithDetails("from: " + err.Error())
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, errors.ErrInvalidInput.WithDetails("to: " + err.Error())
		}
		filter.To = &t
	}
	if raw := q.Get("min_amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.ErrInvalidInput.WithDetails("min_amount: " + err.Error())
		}
		filter.MinAmount = &d
	}
	if raw := q.Get("max_amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.ErrInvalidInput.WithDetails("max_amount: " + err.Error())
		}
		filter.MaxAmount = &d
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
