package handlers

import (
	"fmt"
	"net/http"

	"bracket/internal/models"
	"bracket/internal/service"
)

// PositionHandler - хендлеры настроек позиции
type PositionHandler struct {
	orders *service.OrderService
}

// NewPositionHandler создаёт хендлер настроек позиции
func NewPositionHandler(orders *service.OrderService) *PositionHandler {
	return &PositionHandler{orders: orders}
}

// SetLeverage обрабатывает POST /api/v1/position/leverage
func (h *PositionHandler) SetLeverage(w http.ResponseWriter, r *http.Request) {
	var req models.LeverageRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := h.orders.SetLeverage(r.Context(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

// SetMarginType обрабатывает POST /api/v1/position/margin-mode
func (h *PositionHandler) SetMarginType(w http.ResponseWriter, r *http.Request) {
	var req models.MarginModeRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := h.orders.SetMarginType(r.Context(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}
