package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"bracket/internal/bot"
	"bracket/internal/exchange"
)

// mockClient - ручной мок биржевого клиента для сервисных тестов
type mockClient struct {
	mu sync.Mutex

	account    *exchange.AccountSnapshot
	accountErr error

	positions    []exchange.Position
	positionsErr error

	orders    []exchange.OpenOrder
	ordersErr error

	hedgeMode bool

	cancelErr   error
	canceled    []int64
	closeAck    *exchange.OrderAck
	closeErr    error
	lastClose   exchange.CloseRequest
	leverageSet map[string]int
	marginSet   map[string]string

	klines     []exchange.Kline
	klinesErr  error
	klineCalls int

	fundingRates []exchange.FundingRate
	fundingErr   error
}

func newMockClient() *mockClient {
	return &mockClient{
		account:     &exchange.AccountSnapshot{},
		closeAck:    &exchange.OrderAck{},
		leverageSet: make(map[string]int),
		marginSet:   make(map[string]string),
	}
}

func (m *mockClient) GetPositions(ctx context.Context) ([]exchange.Position, error) {
	return m.positions, m.positionsErr
}

func (m *mockClient) GetOpenOrders(ctx context.Context) ([]exchange.OpenOrder, error) {
	return m.orders, m.ordersErr
}

func (m *mockClient) GetAccount(ctx context.Context) (*exchange.AccountSnapshot, error) {
	return m.account, m.accountErr
}

func (m *mockClient) GetPositionMode(ctx context.Context) (bool, error) {
	return m.hedgeMode, nil
}

func (m *mockClient) GetMarkPrice(ctx context.Context, symbol string) (*exchange.MarkPriceInfo, error) {
	return &exchange.MarkPriceInfo{Symbol: symbol}, nil
}

func (m *mockClient) GetExchangeInfo(ctx context.Context) ([]exchange.InstrumentMeta, error) {
	return nil, nil
}

func (m *mockClient) GetKlines(ctx context.Context, q exchange.KlinesQuery) ([]exchange.Kline, error) {
	m.mu.Lock()
	m.klineCalls++
	m.mu.Unlock()
	return m.klines, m.klinesErr
}

func (m *mockClient) GetFundingRate(ctx context.Context, q exchange.FundingRateQuery) ([]exchange.FundingRate, error) {
	return m.fundingRates, m.fundingErr
}

func (m *mockClient) PlaceBatch(ctx context.Context, orders []exchange.BatchOrder) ([]exchange.BatchResult, error) {
	return nil, nil
}

func (m *mockClient) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	m.mu.Lock()
	m.canceled = append(m.canceled, orderID)
	m.mu.Unlock()
	return m.cancelErr
}

func (m *mockClient) ClosePositionMarket(ctx context.Context, req exchange.CloseRequest) (*exchange.OrderAck, error) {
	m.mu.Lock()
	m.lastClose = req
	m.mu.Unlock()
	return m.closeAck, m.closeErr
}

func (m *mockClient) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	m.mu.Lock()
	m.leverageSet[symbol] = leverage
	m.mu.Unlock()
	return nil
}

func (m *mockClient) SetMarginType(ctx context.Context, symbol, marginType string) error {
	m.mu.Lock()
	m.marginSet[symbol] = marginType
	m.mu.Unlock()
	return nil
}

// mockPlacer - мок размещения bracket-набора
type mockPlacer struct {
	result  *bot.PlaceResult
	err     error
	lastReq bot.PlaceRequest
}

func (m *mockPlacer) Place(ctx context.Context, req bot.PlaceRequest) (*bot.PlaceResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
