package bot

import (
	"github.com/shopspring/decimal"

	"bracket/internal/exchange"
	"bracket/pkg/utils"
)

// Масштабы округления отчётных величин
const (
	minPriceScale = 2
	currencyScale = 4
	percentScale  = 2
)

// defaultMaintenanceMarginRate - ставка поддерживающей маржи нижнего
// тира Binance, используется когда биржа не сообщила свою
var defaultMaintenanceMarginRate = decimal.NewFromFloat(0.004)

// RiskMetrics - производные показатели риска позиции.
// Чистая функция от среза позиции, нигде не хранится
type RiskMetrics struct {
	MarginUsed decimal.Decimal
	// LiquidationPrice - оценка цены ликвидации.
	// Approximate=true означает расчёт по упрощённой формуле,
	// не учитывающей тиры маржи и состояние всего аккаунта
	LiquidationPrice decimal.Decimal
	Approximate      bool
	ROE              decimal.Decimal // процент на использованную маржу
}

// RiskCalculator считает маржу, оценку ликвидации и ROE
// на decimal-арифметике. float64 здесь запрещён
type RiskCalculator struct {
	maintenanceMarginRate decimal.Decimal
}

// NewRiskCalculator создаёт калькулятор со ставкой по умолчанию
func NewRiskCalculator() *RiskCalculator {
	return &RiskCalculator{
		maintenanceMarginRate: defaultMaintenanceMarginRate,
	}
}

// MarginUsed - использованная маржа позиции.
//
// isolated: точное значение isolatedWallet с биржи.
// cross: initialMargin из account-среза, а при его отсутствии
// оценка abs(quantity) * entryPrice / leverage
func (c *RiskCalculator) MarginUsed(p exchange.Position, initialMargin decimal.Decimal) decimal.Decimal {
	var margin decimal.Decimal

	if p.MarginType == "isolated" {
		margin = p.IsolatedWallet
	} else if initialMargin.Sign() > 0 {
		margin = initialMargin
	} else {
		leverage := p.Leverage
		if leverage.Sign() <= 0 {
			leverage = decimal.NewFromInt(1)
		}
		margin = p.Quantity.Abs().Mul(p.EntryPrice).Div(leverage)
	}

	return utils.RoundHalfUp(margin, currencyScale)
}

// LiquidationPriceEstimate - оценка цены ликвидации.
//
// Ненулевое значение биржи авторитетно и возвращается как есть.
// Иначе приближение: long entry*(1 - 1/lev + mmr),
// short entry*(1 + 1/lev - mmr), отрицательный результат - ноль.
// Второй результат true = значение приближённое
func (c *RiskCalculator) LiquidationPriceEstimate(p exchange.Position) (decimal.Decimal, bool) {
	scale := priceScale(p.EntryPrice)

	if p.LiquidationPrice.Sign() > 0 {
		return utils.RoundHalfUp(p.LiquidationPrice, scale), false
	}

	leverage := p.Leverage
	if leverage.Sign() <= 0 || p.EntryPrice.Sign() <= 0 {
		return decimal.Zero, true
	}

	one := decimal.NewFromInt(1)
	invLev := one.Div(leverage)

	var factor decimal.Decimal
	if isShortPosition(p) {
		factor = one.Add(invLev).Sub(c.maintenanceMarginRate)
	} else {
		factor = one.Sub(invLev).Add(c.maintenanceMarginRate)
	}

	estimate := p.EntryPrice.Mul(factor)
	if estimate.Sign() < 0 {
		estimate = decimal.Zero
	}
	return utils.RoundHalfUp(estimate, scale), true
}

// ROE - процент прибыли на использованную маржу.
// Нулевая маржа даёт ноль, а не ошибку деления
func (c *RiskCalculator) ROE(unrealizedPnL, marginUsed decimal.Decimal) decimal.Decimal {
	if marginUsed.Sign() == 0 {
		return decimal.Zero
	}
	roe := unrealizedPnL.Div(marginUsed).Mul(decimal.NewFromInt(100))
	return utils.RoundHalfUp(roe, percentScale)
}

// Metrics собирает все показатели одной позиции
func (c *RiskCalculator) Metrics(p exchange.Position, initialMargin decimal.Decimal) RiskMetrics {
	margin := c.MarginUsed(p, initialMargin)
	liq, approx := c.LiquidationPriceEstimate(p)

	return RiskMetrics{
		MarginUsed:       margin,
		LiquidationPrice: liq,
		Approximate:      approx,
		ROE:              c.ROE(p.UnrealizedPnL, margin),
	}
}

// priceScale - масштаб ценовых полей: не меньше двух знаков
// и не меньше точности цены входа
func priceScale(entryPrice decimal.Decimal) int32 {
	scale := utils.DecimalPlaces(entryPrice)
	if scale < minPriceScale {
		scale = minPriceScale
	}
	return scale
}

// isShortPosition определяет направление по знаку количества,
// а для hedge-ноги с нулевым объёмом - по positionSide
func isShortPosition(p exchange.Position) bool {
	if p.Quantity.Sign() != 0 {
		return p.Quantity.Sign() < 0
	}
	return p.PositionSide == "SHORT"
}
