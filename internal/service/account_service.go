// Package service содержит бизнес-логику поверх биржевого клиента.
// Хендлеры HTTP API зависят от сервисов, а не от клиента напрямую
package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"bracket/internal/bot"
	"bracket/internal/exchange"
	"bracket/internal/models"
	"bracket/pkg/utils"
)

// AccountService собирает сводку аккаунта и показатели риска позиций
type AccountService struct {
	client exchange.Client
	risk   *bot.RiskCalculator
	logger *utils.Logger
}

// NewAccountService создаёт сервис аккаунта
func NewAccountService(client exchange.Client, risk *bot.RiskCalculator, logger *utils.Logger) *AccountService {
	if logger == nil {
		logger = utils.L()
	}
	return &AccountService{
		client: client,
		risk:   risk,
		logger: logger.WithComponent("account_service"),
	}
}

// marginKey - ключ для сопоставления initialMargin из account-среза
// с позицией из positionRisk
type marginKey struct {
	symbol string
	side   string
}

// GetSummary возвращает сводку аккаунта: балансы, позиции с риском
// и активные ордера. Четыре запроса к бирже выполняются параллельно
func (s *AccountService) GetSummary(ctx context.Context) (*models.AccountSummary, error) {
	var (
		wg        sync.WaitGroup
		account   *exchange.AccountSnapshot
		positions []exchange.Position
		orders    []exchange.OpenOrder
		hedgeMode bool

		accErr, posErr, ordErr, modeErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		account, accErr = s.client.GetAccount(ctx)
	}()
	go func() {
		defer wg.Done()
		positions, posErr = s.client.GetPositions(ctx)
	}()
	go func() {
		defer wg.Done()
		orders, ordErr = s.client.GetOpenOrders(ctx)
	}()
	go func() {
		defer wg.Done()
		hedgeMode, modeErr = s.client.GetPositionMode(ctx)
	}()
	wg.Wait()

	for _, err := range []error{accErr, posErr, ordErr, modeErr} {
		if err != nil {
			return nil, err
		}
	}

	summary := &models.AccountSummary{
		TotalWalletBalance:    account.TotalWalletBalance.String(),
		TotalUnrealizedProfit: account.TotalUnrealizedProfit.String(),
		TotalMarginBalance:    account.TotalMarginBalance.String(),
		AvailableBalance:      account.AvailableBalance.String(),
		HedgeMode:             hedgeMode,
		Positions:             s.positionReports(positions, initialMargins(account)),
		ActiveOrders:          orderViews(orders),
	}
	return summary, nil
}

// GetRisk возвращает отчёты по риску открытых позиций
func (s *AccountService) GetRisk(ctx context.Context) ([]models.PositionReport, error) {
	var (
		wg        sync.WaitGroup
		account   *exchange.AccountSnapshot
		positions []exchange.Position

		accErr, posErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		account, accErr = s.client.GetAccount(ctx)
	}()
	go func() {
		defer wg.Done()
		positions, posErr = s.client.GetPositions(ctx)
	}()
	wg.Wait()

	if accErr != nil {
		return nil, accErr
	}
	if posErr != nil {
		return nil, posErr
	}

	return s.positionReports(positions, initialMargins(account)), nil
}

// positionReports строит отчёты по открытым позициям.
// Закрытые (нулевой объём) пропускаются
func (s *AccountService) positionReports(positions []exchange.Position, margins map[marginKey]decimal.Decimal) []models.PositionReport {
	reports := make([]models.PositionReport, 0, len(positions))
	for _, p := range positions {
		if p.Quantity.IsZero() {
			continue
		}

		metrics := s.risk.Metrics(p, margins[marginKey{p.Symbol, p.PositionSide}])
		reports = append(reports, models.PositionReport{
			Symbol:            p.Symbol,
			PositionSide:      p.PositionSide,
			Quantity:          p.Quantity.String(),
			EntryPrice:        p.EntryPrice.String(),
			MarkPrice:         p.MarkPrice.String(),
			Leverage:          p.Leverage.String(),
			MarginType:        p.MarginType,
			MarginUsed:        metrics.MarginUsed.String(),
			UnrealizedPnL:     p.UnrealizedPnL.String(),
			ROE:               metrics.ROE.String(),
			LiquidationPrice:  metrics.LiquidationPrice.String(),
			LiquidationApprox: metrics.Approximate,
		})
	}
	return reports
}

// initialMargins индексирует initialMargin из account-среза
func initialMargins(account *exchange.AccountSnapshot) map[marginKey]decimal.Decimal {
	margins := make(map[marginKey]decimal.Decimal, len(account.Positions))
	for _, p := range account.Positions {
		margins[marginKey{p.Symbol, p.PositionSide}] = p.InitialMargin
	}
	return margins
}

func orderViews(orders []exchange.OpenOrder) []models.OrderView {
	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, models.OrderView{
			Symbol:        o.Symbol,
			OrderID:       o.OrderID,
			ClientOrderID: o.ClientOrderID,
			Side:          o.Side,
			PositionSide:  o.PositionSide,
			Type:          o.Type,
			Status:        o.Status,
			Quantity:      o.OrigQty.String(),
			Price:         o.Price.String(),
			StopPrice:     o.StopPrice.String(),
			ClosePosition: o.ClosePosition,
			Time:          o.Time,
		})
	}
	return views
}
