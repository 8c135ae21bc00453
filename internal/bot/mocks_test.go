package bot

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"bracket/internal/exchange"
)

// mockExchange - ручной мок биржевого клиента.
// Поведение настраивается полями, вызовы считаются
type mockExchange struct {
	mu sync.Mutex

	positions    []exchange.Position
	positionsErr error
	orders       []exchange.OpenOrder
	ordersErr    error

	canceled  []int64
	cancelErr map[int64]error // ошибка отмены конкретного ордера

	batchResults []exchange.BatchResult
	batchErr     error
	lastBatch    []exchange.BatchOrder

	markPrice decimal.Decimal
	hedgeMode bool

	calls map[string]int

	// blockFetch, если задан, останавливает GetPositions
	// до закрытия канала (тест однополётности)
	blockFetch chan struct{}
}

func newMockExchange() *mockExchange {
	return &mockExchange{
		cancelErr: make(map[int64]error),
		calls:     make(map[string]int),
		markPrice: decimal.RequireFromString("25000"),
	}
}

func (m *mockExchange) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *mockExchange) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockExchange) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *mockExchange) canceledIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, len(m.canceled))
	copy(ids, m.canceled)
	return ids
}

func (m *mockExchange) GetPositions(ctx context.Context) ([]exchange.Position, error) {
	m.record("GetPositions")
	if m.blockFetch != nil {
		select {
		case <-m.blockFetch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.positions, m.positionsErr
}

func (m *mockExchange) GetOpenOrders(ctx context.Context) ([]exchange.OpenOrder, error) {
	m.record("GetOpenOrders")
	return m.orders, m.ordersErr
}

func (m *mockExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	m.record("CancelOrder")
	m.mu.Lock()
	m.canceled = append(m.canceled, orderID)
	err := m.cancelErr[orderID]
	m.mu.Unlock()
	return err
}

func (m *mockExchange) PlaceBatch(ctx context.Context, orders []exchange.BatchOrder) ([]exchange.BatchResult, error) {
	m.record("PlaceBatch")
	m.mu.Lock()
	m.lastBatch = orders
	m.mu.Unlock()
	return m.batchResults, m.batchErr
}

func (m *mockExchange) GetMarkPrice(ctx context.Context, symbol string) (*exchange.MarkPriceInfo, error) {
	m.record("GetMarkPrice")
	return &exchange.MarkPriceInfo{Symbol: symbol, MarkPrice: m.markPrice}, nil
}

func (m *mockExchange) GetAccount(ctx context.Context) (*exchange.AccountSnapshot, error) {
	m.record("GetAccount")
	return &exchange.AccountSnapshot{}, nil
}

func (m *mockExchange) GetPositionMode(ctx context.Context) (bool, error) {
	m.record("GetPositionMode")
	return m.hedgeMode, nil
}

func (m *mockExchange) GetExchangeInfo(ctx context.Context) ([]exchange.InstrumentMeta, error) {
	m.record("GetExchangeInfo")
	return nil, nil
}

func (m *mockExchange) GetKlines(ctx context.Context, q exchange.KlinesQuery) ([]exchange.Kline, error) {
	m.record("GetKlines")
	return nil, nil
}

func (m *mockExchange) GetFundingRate(ctx context.Context, q exchange.FundingRateQuery) ([]exchange.FundingRate, error) {
	m.record("GetFundingRate")
	return nil, nil
}

func (m *mockExchange) ClosePositionMarket(ctx context.Context, req exchange.CloseRequest) (*exchange.OrderAck, error) {
	m.record("ClosePositionMarket")
	return &exchange.OrderAck{}, nil
}

func (m *mockExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	m.record("SetLeverage")
	return nil
}

func (m *mockExchange) SetMarginType(ctx context.Context, symbol, marginType string) error {
	m.record("SetMarginType")
	return nil
}

// mockMarks - мок кэша mark price
type mockMarks struct {
	price decimal.Decimal
	ok    bool
}

func (m *mockMarks) Price(symbol string) (decimal.Decimal, bool) {
	return m.price, m.ok
}
