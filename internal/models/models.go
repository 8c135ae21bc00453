// Package models содержит view-модели HTTP API.
// Денежные поля сериализуются строками, чтобы клиент
// не терял decimal-точность на float
package models

// PositionReport - позиция с показателями риска
type PositionReport struct {
	Symbol           string `json:"symbol"`
	PositionSide     string `json:"positionSide"`
	Quantity         string `json:"quantity"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	Leverage         string `json:"leverage"`
	MarginType       string `json:"marginType"`
	MarginUsed       string `json:"marginUsed"`
	UnrealizedPnL    string `json:"unrealizedPnl"`
	ROE              string `json:"roe"`
	LiquidationPrice string `json:"liquidationPrice"`
	// LiquidationApprox = цена ликвидации посчитана по упрощённой
	// формуле, а не получена с биржи
	LiquidationApprox bool `json:"liquidationApprox"`
}

// AccountSummary - сводка аккаунта
type AccountSummary struct {
	TotalWalletBalance    string           `json:"totalWalletBalance"`
	TotalUnrealizedProfit string           `json:"totalUnrealizedProfit"`
	TotalMarginBalance    string           `json:"totalMarginBalance"`
	AvailableBalance      string           `json:"availableBalance"`
	HedgeMode             bool             `json:"hedgeMode"`
	Positions             []PositionReport `json:"positions"`
	ActiveOrders          []OrderView      `json:"activeOrders"`
}

// OrderView - открытый ордер
type OrderView struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Side          string `json:"side"`
	PositionSide  string `json:"positionSide"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price"`
	StopPrice     string `json:"stopPrice"`
	ClosePosition bool   `json:"closePosition"`
	Time          int64  `json:"time"`
}

// OpenMarketRequest - запрос bracket-входа
type OpenMarketRequest struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	Quantity   string `json:"quantity"`
	StopLoss   string `json:"stopLoss"`
	TakeProfit string `json:"takeProfit"`
}

// OrderLegView - исход одной ноги bracket-набора
type OrderLegView struct {
	OrderID       int64  `json:"orderId,omitempty"`
	ClientOrderID string `json:"clientOrderId,omitempty"`
	Code          int    `json:"code,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BracketPlacement - результат bracket-входа с деталями каждой ноги
type BracketPlacement struct {
	Entry              OrderLegView `json:"entry"`
	StopLoss           OrderLegView `json:"stopLoss"`
	TakeProfit         OrderLegView `json:"takeProfit"`
	AdjustedStopLoss   string       `json:"adjustedStopLoss"`
	AdjustedTakeProfit string       `json:"adjustedTakeProfit"`
	Registered         bool         `json:"registered"`
}

// CloseMarketRequest - рыночное закрытие позиции
type CloseMarketRequest struct {
	Symbol       string `json:"symbol"`
	PositionSide string `json:"positionSide,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
}

// CloseMarketResult - подтверждение закрытия
type CloseMarketResult struct {
	OrderID     int64  `json:"orderId"`
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	AvgPrice    string `json:"avgPrice"`
	ExecutedQty string `json:"executedQty"`
}

// LeverageRequest - смена плеча
type LeverageRequest struct {
	Symbol   string `json:"symbol"`
	Leverage int    `json:"leverage"`
}

// MarginModeRequest - смена режима маржи
type MarginModeRequest struct {
	Symbol     string `json:"symbol"`
	MarginType string `json:"marginType"` // ISOLATED или CROSSED
}

// KlineView - свеча
type KlineView struct {
	OpenTime  int64  `json:"openTime"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
	CloseTime int64  `json:"closeTime"`
}

// FundingRateView - запись funding rate
type FundingRateView struct {
	Symbol      string `json:"symbol"`
	FundingRate string `json:"fundingRate"`
	FundingTime int64  `json:"fundingTime"`
}
