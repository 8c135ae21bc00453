// Package bot содержит ядро: трекер bracket-ордеров, цикл сверки
// с биржей, расчёт риска и размещение защитных ордеров.
package bot

import (
	"github.com/shopspring/decimal"

	"bracket/internal/exchange"
)

// Direction - направление позиции
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// PositionKey - идентичность торгуемого направления.
// Единственная связь между позицией и её защитными ордерами
type PositionKey struct {
	Symbol    string
	Direction Direction
}

func (k PositionKey) String() string {
	return k.Symbol + "_" + string(k.Direction)
}

// ResolvePositionKey выводит ключ позиции из сырых полей биржи.
//
// В hedge режиме positionSide LONG/SHORT используется напрямую.
// Сентинел BOTH (и весь one-way режим) разрешается по знаку количества.
// false = закрытая нога: нулевое количество и невыводимое направление;
// такие позиции не попадают в активный набор
func ResolvePositionKey(symbol, rawSide string, quantity decimal.Decimal, hedgeMode bool) (PositionKey, bool) {
	if hedgeMode {
		switch rawSide {
		case "LONG":
			return PositionKey{Symbol: symbol, Direction: DirectionLong}, true
		case "SHORT":
			return PositionKey{Symbol: symbol, Direction: DirectionShort}, true
		}
		// BOTH: направление по знаку количества
	}

	switch quantity.Sign() {
	case 1:
		return PositionKey{Symbol: symbol, Direction: DirectionLong}, true
	case -1:
		return PositionKey{Symbol: symbol, Direction: DirectionShort}, true
	}
	return PositionKey{}, false
}

// ResolveOrderKey выводит ключ позиции, которую защищает условный ордер.
//
// Обратное отображение стороны: SELL-ордер закрывает LONG,
// BUY-ордер закрывает SHORT. В hedge режиме positionSide ордера
// используется напрямую, когда задан
func ResolveOrderKey(order exchange.OpenOrder, hedgeMode bool) (PositionKey, bool) {
	if hedgeMode {
		switch order.PositionSide {
		case "LONG":
			return PositionKey{Symbol: order.Symbol, Direction: DirectionLong}, true
		case "SHORT":
			return PositionKey{Symbol: order.Symbol, Direction: DirectionShort}, true
		}
	}

	switch order.Side {
	case "SELL":
		return PositionKey{Symbol: order.Symbol, Direction: DirectionLong}, true
	case "BUY":
		return PositionKey{Symbol: order.Symbol, Direction: DirectionShort}, true
	}
	return PositionKey{}, false
}
