package handlers

import (
	"net/http"

	"bracket/internal/service"
)

// AccountHandler - хендлеры аккаунта
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler создаёт хендлер аккаунта
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Summary обрабатывает GET /api/v1/account/summary
func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.accounts.GetSummary(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, summary)
}

// Risk обрабатывает GET /api/v1/account/risk
func (h *AccountHandler) Risk(w http.ResponseWriter, r *http.Request) {
	reports, err := h.accounts.GetRisk(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, reports)
}
