package bot

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"bracket/internal/exchange"
	"bracket/pkg/utils"
)

// MarkPriceSource - кэш mark price (websocket-поток).
// false = нет свежего значения, нужен REST fallback
type MarkPriceSource interface {
	Price(symbol string) (decimal.Decimal, bool)
}

// PlaceRequest - запрос размещения bracket-набора
type PlaceRequest struct {
	Symbol     string
	Side       string // BUY или SELL, сторона входа
	Quantity   decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// LegResult - исход одной ноги пачки
type LegResult struct {
	OrderID       int64
	ClientOrderID string
	Err           *exchange.APIError // nil = ордер принят
}

// OK сообщает, принята ли нога
func (l LegResult) OK() bool { return l.Err == nil }

// PlaceResult - полный результат размещения.
// Частичный отказ не схлопывается в одну ошибку: вход и каждая
// защитная нога отчитываются отдельно
type PlaceResult struct {
	Entry      LegResult
	StopLoss   LegResult
	TakeProfit LegResult

	// Фактические триггерные цены после проверки безопасности
	AdjustedStopLoss   decimal.Decimal
	AdjustedTakeProfit decimal.Decimal

	// Registered = пара зарегистрирована в трекере
	// (обе защитные ноги приняты биржей)
	Registered bool
}

// BracketOrderPlacer строит и отправляет вход + SL + TP одной пачкой.
//
// Триггерные цены проверяются относительно mark price: нога не должна
// сработать немедленно при размещении. Округление всегда уводит цену
// от mark price, никогда к ней
type BracketOrderPlacer struct {
	client      exchange.Client
	tracker     *BracketTracker
	instruments *exchange.InstrumentTable
	marks       MarkPriceSource // nil = только REST
	logger      *utils.Logger

	now        func() time.Time
	randSuffix func() string
}

// NewBracketOrderPlacer создаёт placer
func NewBracketOrderPlacer(client exchange.Client, tracker *BracketTracker, instruments *exchange.InstrumentTable, marks MarkPriceSource, logger *utils.Logger) *BracketOrderPlacer {
	if logger == nil {
		logger = utils.L()
	}
	return &BracketOrderPlacer{
		client:      client,
		tracker:     tracker,
		instruments: instruments,
		marks:       marks,
		logger:      logger.WithComponent("placer"),
		now:         time.Now,
		randSuffix:  randomSuffix,
	}
}

// Place размещает bracket-набор.
// Ошибка возвращается только при невозможности отправить пачку
// (валидация, транспорт); отказы отдельных ног лежат в PlaceResult
func (p *BracketOrderPlacer) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if err := validatePlaceRequest(req); err != nil {
		return nil, err
	}

	meta, ok := p.instruments.Meta(req.Symbol)
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", req.Symbol)
	}
	if meta.TickSize.Sign() <= 0 {
		return nil, fmt.Errorf("symbol %s has no tick size", req.Symbol)
	}

	markPrice, err := p.markPrice(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch mark price: %w", err)
	}

	hedgeMode, err := p.client.GetPositionMode(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch position mode: %w", err)
	}

	long := req.Side == "BUY"
	closeSide := "SELL"
	direction := DirectionLong
	if !long {
		closeSide = "BUY"
		direction = DirectionShort
	}

	positionSide := ""
	if hedgeMode {
		positionSide = string(direction)
	}

	stopLoss := adjustStopLoss(req.StopLoss, markPrice, meta.TickSize, long)
	takeProfit := adjustTakeProfit(req.TakeProfit, markPrice, meta.TickSize, long)

	quantity := utils.FloorToStep(req.Quantity, meta.StepSize)
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("quantity %s is below step size %s", req.Quantity, meta.StepSize)
	}

	root := fmt.Sprintf("x-%d-%s", p.now().UnixMilli(), p.randSuffix())

	batch := []exchange.BatchOrder{
		{
			Symbol:           req.Symbol,
			Side:             req.Side,
			PositionSide:     positionSide,
			Type:             "MARKET",
			Quantity:         quantity,
			NewClientOrderID: root + "-M",
		},
		{
			Symbol:           req.Symbol,
			Side:             closeSide,
			PositionSide:     positionSide,
			Type:             "STOP_MARKET",
			StopPrice:        stopLoss,
			ClosePosition:    true,
			WorkingType:      "MARK_PRICE",
			NewClientOrderID: root + "-SL",
		},
		{
			Symbol:           req.Symbol,
			Side:             closeSide,
			PositionSide:     positionSide,
			Type:             "TAKE_PROFIT_MARKET",
			StopPrice:        takeProfit,
			ClosePosition:    true,
			WorkingType:      "MARK_PRICE",
			NewClientOrderID: root + "-TP",
		},
	}

	results, err := p.client.PlaceBatch(ctx, batch)
	if err != nil {
		bracketsPlacedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("place batch: %w", err)
	}
	if len(results) != len(batch) {
		bracketsPlacedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("batch returned %d results for %d orders", len(results), len(batch))
	}

	result := &PlaceResult{
		Entry:              legResult(results[0]),
		StopLoss:           legResult(results[1]),
		TakeProfit:         legResult(results[2]),
		AdjustedStopLoss:   stopLoss,
		AdjustedTakeProfit: takeProfit,
	}

	// Регистрация только при успехе ОБЕИХ защитных ног.
	// Незарегистрированную ногу от частично провалившейся пачки
	// подберёт цикл сверки по живому состоянию ордеров
	if result.StopLoss.OK() && result.TakeProfit.OK() {
		p.tracker.Register(BracketRecord{
			Key:               PositionKey{Symbol: req.Symbol, Direction: direction},
			Symbol:            req.Symbol,
			StopLossOrderID:   result.StopLoss.OrderID,
			TakeProfitOrderID: result.TakeProfit.OrderID,
			CreatedAt:         p.now(),
		})
		result.Registered = true
		trackedBrackets.Set(float64(p.tracker.Len()))
		bracketsPlacedTotal.WithLabelValues("ok").Inc()
	} else {
		bracketsPlacedTotal.WithLabelValues("partial").Inc()
		p.logger.Warn("protective leg rejected, bracket not registered",
			utils.Symbol(req.Symbol),
			utils.Any("stop_loss_err", result.StopLoss.Err),
			utils.Any("take_profit_err", result.TakeProfit.Err))
	}

	p.logger.Info("bracket placed",
		utils.Symbol(req.Symbol),
		utils.Side(req.Side),
		utils.Price(stopLoss.String()),
		utils.String("take_profit", takeProfit.String()),
		utils.Bool("registered", result.Registered))

	return result, nil
}

// markPrice берёт цену из кэша потока, при промахе - REST
func (p *BracketOrderPlacer) markPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.marks != nil {
		if price, ok := p.marks.Price(symbol); ok && price.Sign() > 0 {
			return price, nil
		}
	}
	info, err := p.client.GetMarkPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if info.MarkPrice.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("exchange returned non-positive mark price for %s", symbol)
	}
	return info.MarkPrice, nil
}

// adjustStopLoss приводит триггер SL к безопасному значению.
//
// Лонг: триггер строго ниже mark price, округление вниз.
// Шорт: строго выше, округление вверх
func adjustStopLoss(requested, markPrice, tick decimal.Decimal, long bool) decimal.Decimal {
	if long {
		price := requested
		if price.GreaterThanOrEqual(markPrice) {
			price = markPrice.Sub(tick)
		}
		price = utils.FloorToStep(price, tick)
		if price.GreaterThanOrEqual(markPrice) {
			price = utils.FloorToStep(markPrice.Sub(tick), tick)
		}
		return price
	}

	price := requested
	if price.LessThanOrEqual(markPrice) {
		price = markPrice.Add(tick)
	}
	price = utils.CeilToStep(price, tick)
	if price.LessThanOrEqual(markPrice) {
		price = utils.CeilToStep(markPrice.Add(tick), tick)
	}
	return price
}

// adjustTakeProfit - зеркало adjustStopLoss.
// Лонг: строго выше mark price, вверх; шорт: строго ниже, вниз
func adjustTakeProfit(requested, markPrice, tick decimal.Decimal, long bool) decimal.Decimal {
	if long {
		price := requested
		if price.LessThanOrEqual(markPrice) {
			price = markPrice.Add(tick)
		}
		price = utils.CeilToStep(price, tick)
		if price.LessThanOrEqual(markPrice) {
			price = utils.CeilToStep(markPrice.Add(tick), tick)
		}
		return price
	}

	price := requested
	if price.GreaterThanOrEqual(markPrice) {
		price = markPrice.Sub(tick)
	}
	price = utils.FloorToStep(price, tick)
	if price.GreaterThanOrEqual(markPrice) {
		price = utils.FloorToStep(markPrice.Sub(tick), tick)
	}
	return price
}

func validatePlaceRequest(req PlaceRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if req.Side != "BUY" && req.Side != "SELL" {
		return fmt.Errorf("side must be BUY or SELL, got %q", req.Side)
	}
	if req.Quantity.Sign() <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if req.StopLoss.Sign() <= 0 {
		return fmt.Errorf("stopLoss must be positive")
	}
	if req.TakeProfit.Sign() <= 0 {
		return fmt.Errorf("takeProfit must be positive")
	}
	return nil
}

func legResult(r exchange.BatchResult) LegResult {
	return LegResult{
		OrderID:       r.OrderID,
		ClientOrderID: r.ClientOrderID,
		Err:           r.Err,
	}
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomSuffix - короткий случайный хвост клиентского идентификатора
func randomSuffix() string {
	b := make([]byte, 5)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
