package service

import (
	"context"
	"fmt"

	"bracket/internal/exchange"
	"bracket/internal/models"
	"bracket/pkg/retry"
	"bracket/pkg/utils"
)

// MarketService - рыночные данные: свечи и история funding rate.
// Некритичные чтения повторяются консервативным retry
// только на временных ошибках
type MarketService struct {
	client   exchange.Client
	logger   *utils.Logger
	retryCfg retry.Config
}

// NewMarketService создаёт сервис рыночных данных
func NewMarketService(client exchange.Client, logger *utils.Logger) *MarketService {
	if logger == nil {
		logger = utils.L()
	}
	cfg := retry.ConservativeConfig()
	cfg.RetryIf = exchange.IsRetryable
	return &MarketService{
		client:   client,
		logger:   logger.WithComponent("market_service"),
		retryCfg: cfg,
	}
}

// Klines возвращает свечи символа
func (s *MarketService) Klines(ctx context.Context, q exchange.KlinesQuery) ([]models.KlineView, error) {
	if q.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if q.Interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if q.Limit < 0 || q.Limit > 1500 {
		return nil, fmt.Errorf("limit must be within 0..1500, got %d", q.Limit)
	}

	klines, err := retry.DoWithResult(ctx, func() ([]exchange.Kline, error) {
		return s.client.GetKlines(ctx, q)
	}, s.retryCfg)
	if err != nil {
		return nil, err
	}

	views := make([]models.KlineView, 0, len(klines))
	for _, k := range klines {
		views = append(views, models.KlineView{
			OpenTime:  k.OpenTime,
			Open:      k.Open.String(),
			High:      k.High.String(),
			Low:       k.Low.String(),
			Close:     k.Close.String(),
			Volume:    k.Volume.String(),
			CloseTime: k.CloseTime,
		})
	}
	return views, nil
}

// FundingRate возвращает историю funding rate символа
func (s *MarketService) FundingRate(ctx context.Context, q exchange.FundingRateQuery) ([]models.FundingRateView, error) {
	if q.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if q.Limit < 0 || q.Limit > 1000 {
		return nil, fmt.Errorf("limit must be within 0..1000, got %d", q.Limit)
	}

	rates, err := retry.DoWithResult(ctx, func() ([]exchange.FundingRate, error) {
		return s.client.GetFundingRate(ctx, q)
	}, s.retryCfg)
	if err != nil {
		return nil, err
	}

	views := make([]models.FundingRateView, 0, len(rates))
	for _, r := range rates {
		views = append(views, models.FundingRateView{
			Symbol:      r.Symbol,
			FundingRate: r.FundingRate.String(),
			FundingTime: r.FundingTime,
		})
	}
	return views, nil
}
