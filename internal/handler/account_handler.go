package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
	"retail-ledger/internal/service"
)

type AccountHandler struct {
	accountService   AccountService
	directoryService DirectoryService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService AccountService, directoryService DirectoryService) *AccountHandler {
	return &AccountHandler{
		accountService:   accountService,
		directoryService: directoryService,
	}
}

type CreateAccountRequest struct {
	OwnerID        string `json:"owner_id" validate:"required,max=64"`
	Kind           string `json:"kind" validate:"required,oneof=checking savings credit_card loan"`
	InitialBalance string `json:"initial_balance" validate:"required,nonnegative_amount"`
}

type AccountResponse struct {
	AccountID string    `json:"account_id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name,omitempty"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AccountHandler) toResponse(r *http.Request, account domain.Account) AccountResponse {
	resp := AccountResponse{
		AccountID: account.ID,
		Kind:      string(account.Kind),
		Label:     account.Label,
		OwnerID:   account.OwnerID,
		Balance:   account.Balance.StringFixed(domain.CentPlaces),
		CreatedAt: account.CreatedAt,
	}
	if name, ok := h.directoryService.ResolveOwnerName(r.Context(), account.OwnerID); ok {
		resp.OwnerName = name
	}
	return resp
}

func (h *AccountHandler) toResponses(r *http.Request, accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, h.toResponse(r, account))
	}
	return out
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	initialBalance, err := decimal.NewFromString(req.InitialBalance)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid initial_balance format"))
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), service.CreateAccountRequest{
		OwnerID:        req.OwnerID,
		Kind:           domain.AccountKind(req.Kind),
		InitialBalance: initialBalance,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(r, *account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["account_id"]

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(r, *account))
}

func (h *AccountHandler) ListAccountsByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := mux.Vars(r)["user_id"]

	accounts, err := h.accountService.GetAccountsByOwner(r.Context(), ownerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponses(r, accounts))
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponses(r, accounts))
}
