package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"bracket/internal/exchange"
	"bracket/internal/service"
)

// MarketHandler - хендлеры рыночных данных
type MarketHandler struct {
	market *service.MarketService
}

// NewMarketHandler создаёт хендлер рыночных данных
func NewMarketHandler(market *service.MarketService) *MarketHandler {
	return &MarketHandler{market: market}
}

// Klines обрабатывает GET /api/v1/market/klines
func (h *MarketHandler) Klines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := exchange.KlinesQuery{
		Symbol:   query.Get("symbol"),
		Interval: query.Get("interval"),
	}

	var err error
	if q.StartTime, err = optionalInt64(query.Get("startTime")); err != nil {
		badRequest(w, fmt.Errorf("invalid startTime"))
		return
	}
	if q.EndTime, err = optionalInt64(query.Get("endTime")); err != nil {
		badRequest(w, fmt.Errorf("invalid endTime"))
		return
	}
	limit, err := optionalInt64(query.Get("limit"))
	if err != nil {
		badRequest(w, fmt.Errorf("invalid limit"))
		return
	}
	q.Limit = int(limit)

	klines, err := h.market.Klines(r.Context(), q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, klines)
}

// FundingRate обрабатывает GET /api/v1/market/funding-rate
func (h *MarketHandler) FundingRate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := exchange.FundingRateQuery{Symbol: query.Get("symbol")}

	var err error
	if q.StartTime, err = optionalInt64(query.Get("startTime")); err != nil {
		badRequest(w, fmt.Errorf("invalid startTime"))
		return
	}
	if q.EndTime, err = optionalInt64(query.Get("endTime")); err != nil {
		badRequest(w, fmt.Errorf("invalid endTime"))
		return
	}
	limit, err := optionalInt64(query.Get("limit"))
	if err != nil {
		badRequest(w, fmt.Errorf("invalid limit"))
		return
	}
	q.Limit = int(limit)

	rates, err := h.market.FundingRate(r.Context(), q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, rates)
}

// optionalInt64 парсит необязательный числовой query-параметр
func optionalInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
