// Package api собирает HTTP-маршруты сервера
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bracket/internal/api/handlers"
	"bracket/internal/api/middleware"
	"bracket/internal/service"
	"bracket/pkg/utils"
)

// Dependencies - зависимости маршрутизатора
type Dependencies struct {
	Accounts *service.AccountService
	Orders   *service.OrderService
	Market   *service.MarketService

	// AuthTokenHash - bcrypt-хеш API-токена; пусто = без авторизации
	AuthTokenHash string
	Logger        *utils.Logger
}

// NewRouter строит маршрутизатор со всеми хендлерами и middleware.
// /health и /metrics остаются вне авторизации
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = utils.L()
	}

	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(middleware.Auth(deps.AuthTokenHash, logger))

	order := handlers.NewOrderHandler(deps.Orders)
	v1.HandleFunc("/order/open/market", order.OpenMarket).Methods(http.MethodPost)
	v1.HandleFunc("/order/close/market", order.CloseMarket).Methods(http.MethodPost)
	v1.HandleFunc("/order", order.Cancel).Methods(http.MethodDelete)
	v1.HandleFunc("/order/active", order.Active).Methods(http.MethodGet)

	account := handlers.NewAccountHandler(deps.Accounts)
	v1.HandleFunc("/account/summary", account.Summary).Methods(http.MethodGet)
	v1.HandleFunc("/account/risk", account.Risk).Methods(http.MethodGet)

	market := handlers.NewMarketHandler(deps.Market)
	v1.HandleFunc("/market/klines", market.Klines).Methods(http.MethodGet)
	v1.HandleFunc("/market/funding-rate", market.FundingRate).Methods(http.MethodGet)

	position := handlers.NewPositionHandler(deps.Orders)
	v1.HandleFunc("/position/leverage", position.SetLeverage).Methods(http.MethodPost)
	v1.HandleFunc("/position/margin-mode", position.SetMarginType).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
