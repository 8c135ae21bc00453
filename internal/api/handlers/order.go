package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"bracket/internal/models"
	"bracket/internal/service"
)

// OrderHandler - хендлеры операций с ордерами
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт хендлер ордеров
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// OpenMarket обрабатывает POST /api/v1/order/open/market
func (h *OrderHandler) OpenMarket(w http.ResponseWriter, r *http.Request) {
	var req models.OpenMarketRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	placement, err := h.orders.OpenMarket(r.Context(), req)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, placement)
}

// CloseMarket обрабатывает POST /api/v1/order/close/market
func (h *OrderHandler) CloseMarket(w http.ResponseWriter, r *http.Request) {
	var req models.CloseMarketRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := h.orders.CloseMarket(r.Context(), req)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, result)
}

// Cancel обрабатывает DELETE /api/v1/order?symbol=BTCUSDT&orderId=42
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	orderID, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid orderId"))
		return
	}

	if err := h.orders.CancelOrder(r.Context(), symbol, orderID); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

// Active обрабатывает GET /api/v1/order/active
func (h *OrderHandler) Active(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ActiveOrders(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, orders)
}
