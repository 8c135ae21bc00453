package api

import (
	"context"

	"github.com/shopspring/decimal"

	"bracket/internal/exchange"
)

// mockClient - минимальный мок биржевого клиента для тестов роутера
type mockClient struct {
	positions []exchange.Position
	orders    []exchange.OpenOrder
	account   *exchange.AccountSnapshot
	closeAck  *exchange.OrderAck

	canceled  []int64
	cancelErr error

	klines []exchange.Kline
}

func newMockClient() *mockClient {
	return &mockClient{
		account:  &exchange.AccountSnapshot{},
		closeAck: &exchange.OrderAck{},
	}
}

func (m *mockClient) GetPositions(ctx context.Context) ([]exchange.Position, error) {
	return m.positions, nil
}

func (m *mockClient) GetOpenOrders(ctx context.Context) ([]exchange.OpenOrder, error) {
	return m.orders, nil
}

func (m *mockClient) GetAccount(ctx context.Context) (*exchange.AccountSnapshot, error) {
	return m.account, nil
}

func (m *mockClient) GetPositionMode(ctx context.Context) (bool, error) {
	return false, nil
}

func (m *mockClient) GetMarkPrice(ctx context.Context, symbol string) (*exchange.MarkPriceInfo, error) {
	return &exchange.MarkPriceInfo{Symbol: symbol, MarkPrice: decimal.RequireFromString("25000")}, nil
}

func (m *mockClient) GetExchangeInfo(ctx context.Context) ([]exchange.InstrumentMeta, error) {
	return nil, nil
}

func (m *mockClient) GetKlines(ctx context.Context, q exchange.KlinesQuery) ([]exchange.Kline, error) {
	return m.klines, nil
}

func (m *mockClient) GetFundingRate(ctx context.Context, q exchange.FundingRateQuery) ([]exchange.FundingRate, error) {
	return nil, nil
}

func (m *mockClient) PlaceBatch(ctx context.Context, orders []exchange.BatchOrder) ([]exchange.BatchResult, error) {
	results := make([]exchange.BatchResult, len(orders))
	for i, o := range orders {
		results[i] = exchange.BatchResult{
			OrderID:       int64(100 + i),
			ClientOrderID: o.NewClientOrderID,
			Symbol:        o.Symbol,
			Status:        "NEW",
		}
	}
	return results, nil
}

func (m *mockClient) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	m.canceled = append(m.canceled, orderID)
	return m.cancelErr
}

func (m *mockClient) ClosePositionMarket(ctx context.Context, req exchange.CloseRequest) (*exchange.OrderAck, error) {
	return m.closeAck, nil
}

func (m *mockClient) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}

func (m *mockClient) SetMarginType(ctx context.Context, symbol, marginType string) error {
	return nil
}
