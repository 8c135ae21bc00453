package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"bracket/internal/api"
	"bracket/internal/bot"
	"bracket/internal/config"
	"bracket/internal/exchange"
	"bracket/internal/service"
	"bracket/pkg/ratelimit"
	"bracket/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.L().Fatal("load config", utils.Err(err))
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		Development: cfg.Logging.Development,
	})
	defer logger.Sync()

	logger.Info("starting",
		utils.String("addr", cfg.Server.Addr()),
		utils.Bool("testnet", cfg.Binance.Testnet),
		utils.Duration("reconcile_interval", cfg.Reconciler.Interval))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig())
	defer exchange.CloseIdleConnections(httpClient)

	client := exchange.NewBinance(exchange.BinanceConfig{
		APIKey:     cfg.Binance.APIKey,
		APISecret:  cfg.Binance.APISecret,
		BaseURL:    cfg.Binance.BaseURL,
		RecvWindow: cfg.Binance.RecvWindow,
		HTTPClient: httpClient,
		Limiter:    ratelimit.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst),
		Logger:     logger,
		OnRequest:  bot.ObserveExchangeRequest,
	})

	// Торговые ограничения символов нужны до приёма первого запроса
	instruments := exchange.NewInstrumentTable()
	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Binance.Timeout)
	err = instruments.Load(loadCtx, client)
	cancelLoad()
	if err != nil {
		logger.Fatal("load instruments", utils.Err(err))
	}
	logger.Info("instruments loaded", utils.Int("symbols", instruments.Len()))

	marks := exchange.NewMarkPriceStream(cfg.Binance.WSBaseURL, logger)
	go marks.Run(ctx)

	tracker := bot.NewBracketTracker()
	placer := bot.NewBracketOrderPlacer(client, tracker, instruments, marks, logger)

	reconciler := bot.NewReconciler(client, tracker, bot.ReconcilerConfig{
		Interval:      cfg.Reconciler.Interval,
		FetchTimeout:  cfg.Reconciler.FetchTimeout,
		CancelTimeout: cfg.Reconciler.CancelTimeout,
	}, logger)
	go reconciler.Run(ctx)

	router := api.NewRouter(api.Dependencies{
		Accounts:      service.NewAccountService(client, bot.NewRiskCalculator(), logger),
		Orders:        service.NewOrderService(client, placer, logger),
		Market:        service.NewMarketService(client, logger),
		AuthTokenHash: cfg.Security.AuthTokenHash,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", utils.Err(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", utils.Err(err))
	}

	logger.Info("stopped")
}
