package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Денежная математика выполняется только на decimal.Decimal.
// float64 в расчётах цен, количеств и маржи не используется

// SafeDecimal разбирает строку в decimal.
// Пустая строка и мусор дают ноль - биржа местами возвращает "" вместо "0"
func SafeDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundHalfUp округляет до scale знаков, 0.5 уходит от нуля
func RoundHalfUp(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// DecimalPlaces возвращает число знаков после точки в нормализованном виде.
// Используется для выбора масштаба форматирования цены от цены входа
func DecimalPlaces(d decimal.Decimal) int32 {
	exp := d.Exponent()
	if exp >= 0 {
		return 0
	}
	norm := d.Abs().Sub(d.Abs().Truncate(0)).String()
	// "0.xxxx" либо "0"
	if i := strings.IndexByte(norm, '.'); i >= 0 {
		return int32(len(norm) - i - 1)
	}
	return 0
}

// FloorToStep прижимает значение вниз к сетке с шагом step.
// При нулевом или отрицательном шаге значение не меняется
func FloorToStep(d, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return d
	}
	return d.Div(step).Floor().Mul(step)
}

// CeilToStep прижимает значение вверх к сетке с шагом step
func CeilToStep(d, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return d
	}
	return d.Div(step).Ceil().Mul(step)
}

// FormatFixed форматирует с фиксированным числом знаков после точки
func FormatFixed(d decimal.Decimal, scale int32) string {
	return d.Round(scale).StringFixed(scale)
}
