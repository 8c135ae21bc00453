// Package exchange содержит клиент Binance USDT-M futures и типы его данных.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// Client - операции биржи, нужные остальным пакетам.
// Реализуется *Binance; в тестах подменяется моком
type Client interface {
	// Чтение состояния
	GetPositions(ctx context.Context) ([]Position, error)
	GetOpenOrders(ctx context.Context) ([]OpenOrder, error)
	GetAccount(ctx context.Context) (*AccountSnapshot, error)
	GetPositionMode(ctx context.Context) (bool, error) // true = hedge mode
	GetMarkPrice(ctx context.Context, symbol string) (*MarkPriceInfo, error)
	GetExchangeInfo(ctx context.Context) ([]InstrumentMeta, error)
	GetKlines(ctx context.Context, q KlinesQuery) ([]Kline, error)
	GetFundingRate(ctx context.Context, q FundingRateQuery) ([]FundingRate, error)

	// Изменение состояния
	PlaceBatch(ctx context.Context, orders []BatchOrder) ([]BatchResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	ClosePositionMarket(ctx context.Context, req CloseRequest) (*OrderAck, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginType(ctx context.Context, symbol, marginType string) error
}

// Position - строка из /fapi/v2/positionRisk.
// Quantity (positionAmt) со знаком: отрицательное = шорт в one-way режиме
type Position struct {
	Symbol           string          `json:"symbol"`
	PositionSide     string          `json:"positionSide"` // LONG, SHORT или BOTH
	Quantity         decimal.Decimal `json:"positionAmt"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	MarkPrice        decimal.Decimal `json:"markPrice"`
	LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
	Leverage         decimal.Decimal `json:"leverage"`
	UnrealizedPnL    decimal.Decimal `json:"unRealizedProfit"`
	MarginType       string          `json:"marginType"` // isolated или cross
	IsolatedWallet   decimal.Decimal `json:"isolatedWallet"`
	UpdateTime       int64           `json:"updateTime"`
}

// OpenOrder - строка из /fapi/v1/openOrders
type OpenOrder struct {
	Symbol        string          `json:"symbol"`
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Side          string          `json:"side"` // BUY или SELL
	PositionSide  string          `json:"positionSide"`
	Type          string          `json:"type"` // STOP_MARKET, TAKE_PROFIT_MARKET, ...
	Status        string          `json:"status"`
	OrigQty       decimal.Decimal `json:"origQty"`
	Price         decimal.Decimal `json:"price"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	ReduceOnly    bool            `json:"reduceOnly"`
	ClosePosition bool            `json:"closePosition"`
	WorkingType   string          `json:"workingType"`
	Time          int64           `json:"time"`
}

// Условные типы ордеров, закрывающие позицию.
// Именно они становятся сиротами при исчезновении позиции
var conditionalCloseTypes = map[string]bool{
	"STOP_MARKET":        true,
	"TAKE_PROFIT_MARKET": true,
	"STOP":               true,
	"TAKE_PROFIT":        true,
}

// IsConditionalClose сообщает, относится ли ордер к защитным условным типам
func (o OpenOrder) IsConditionalClose() bool {
	return conditionalCloseTypes[o.Type]
}

// AccountSnapshot - срез /fapi/v2/account
type AccountSnapshot struct {
	TotalWalletBalance    decimal.Decimal   `json:"totalWalletBalance"`
	TotalUnrealizedProfit decimal.Decimal   `json:"totalUnrealizedProfit"`
	TotalMarginBalance    decimal.Decimal   `json:"totalMarginBalance"`
	AvailableBalance      decimal.Decimal   `json:"availableBalance"`
	Assets                []AccountAsset    `json:"assets"`
	Positions             []AccountPosition `json:"positions"`
}

// AccountAsset - баланс по активу
type AccountAsset struct {
	Asset            string          `json:"asset"`
	WalletBalance    decimal.Decimal `json:"walletBalance"`
	UnrealizedProfit decimal.Decimal `json:"unrealizedProfit"`
	MarginBalance    decimal.Decimal `json:"marginBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

// AccountPosition - позиция из account-среза.
// В отличие от positionRisk содержит initialMargin,
// который нужен для оценки маржи в cross режиме
type AccountPosition struct {
	Symbol           string          `json:"symbol"`
	PositionSide     string          `json:"positionSide"`
	PositionAmt      decimal.Decimal `json:"positionAmt"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	Leverage         decimal.Decimal `json:"leverage"`
	InitialMargin    decimal.Decimal `json:"initialMargin"`
	UnrealizedProfit decimal.Decimal `json:"unrealizedProfit"`
	Isolated         bool            `json:"isolated"`
	IsolatedWallet   decimal.Decimal `json:"isolatedWallet"`
}

// MarkPriceInfo - ответ /fapi/v1/premiumIndex
type MarkPriceInfo struct {
	Symbol          string          `json:"symbol"`
	MarkPrice       decimal.Decimal `json:"markPrice"`
	IndexPrice      decimal.Decimal `json:"indexPrice"`
	LastFundingRate decimal.Decimal `json:"lastFundingRate"`
	NextFundingTime int64           `json:"nextFundingTime"`
	Time            int64           `json:"time"`
}

// InstrumentMeta - торговые ограничения символа из exchangeInfo
type InstrumentMeta struct {
	Symbol            string
	TickSize          decimal.Decimal
	StepSize          decimal.Decimal
	PricePrecision    int
	QuantityPrecision int
}

// BatchOrder - один ордер для /fapi/v1/batchOrders
type BatchOrder struct {
	Symbol           string          `json:"symbol"`
	Side             string          `json:"side"`
	PositionSide     string          `json:"positionSide,omitempty"`
	Type             string          `json:"type"`
	Quantity         decimal.Decimal `json:"quantity,omitempty"`
	StopPrice        decimal.Decimal `json:"stopPrice,omitempty"`
	ClosePosition    bool            `json:"closePosition,omitempty"`
	ReduceOnly       bool            `json:"reduceOnly,omitempty"`
	WorkingType      string          `json:"workingType,omitempty"`
	NewClientOrderID string          `json:"newClientOrderId,omitempty"`
}

// BatchResult - результат размещения одного ордера из пачки.
// Binance отвечает 200 даже при частичных отказах,
// каждый элемент нужно проверять отдельно
type BatchResult struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Status        string
	AvgPrice      decimal.Decimal
	Err           *APIError // nil = ордер принят
}

// OK сообщает, принят ли ордер биржей
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// CloseRequest - закрытие позиции рыночным ордером
type CloseRequest struct {
	Symbol       string
	PositionSide string          // LONG/SHORT в hedge режиме, иначе пусто
	Quantity     decimal.Decimal // 0 = закрыть весь объём позиции
}

// OrderAck - подтверждение размещения одиночного ордера
type OrderAck struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Status        string          `json:"status"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
}

// KlinesQuery - параметры запроса свечей
type KlinesQuery struct {
	Symbol    string
	Interval  string // 1m, 5m, 1h, ...
	StartTime int64  // мс, 0 = не задано
	EndTime   int64
	Limit     int // 0 = дефолт биржи (500)
}

// Kline - одна свеча
type Kline struct {
	OpenTime  int64
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime int64
}

// FundingRateQuery - параметры истории funding rate
type FundingRateQuery struct {
	Symbol    string
	StartTime int64
	EndTime   int64
	Limit     int
}

// FundingRate - одна запись funding rate
type FundingRate struct {
	Symbol      string          `json:"symbol"`
	FundingRate decimal.Decimal `json:"fundingRate"`
	FundingTime int64           `json:"fundingTime"`
	MarkPrice   decimal.Decimal `json:"markPrice"`
}
