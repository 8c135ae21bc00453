package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bracket/internal/bot"
	"bracket/internal/exchange"
	"bracket/internal/models"
	"bracket/pkg/utils"
)

// BracketPlacer - размещение bracket-набора.
// Реализуется *bot.BracketOrderPlacer
type BracketPlacer interface {
	Place(ctx context.Context, req bot.PlaceRequest) (*bot.PlaceResult, error)
}

// OrderService - операции с ордерами: bracket-вход, закрытие,
// отмена, список активных
type OrderService struct {
	client exchange.Client
	placer BracketPlacer
	logger *utils.Logger
}

// NewOrderService создаёт сервис ордеров
func NewOrderService(client exchange.Client, placer BracketPlacer, logger *utils.Logger) *OrderService {
	if logger == nil {
		logger = utils.L()
	}
	return &OrderService{
		client: client,
		placer: placer,
		logger: logger.WithComponent("order_service"),
	}
}

// OpenMarket размещает рыночный вход с защитными ногами.
// Числовые поля запроса приходят строками и парсятся в decimal
func (s *OrderService) OpenMarket(ctx context.Context, req models.OpenMarketRequest) (*models.BracketPlacement, error) {
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", req.Quantity)
	}
	stopLoss, err := decimal.NewFromString(req.StopLoss)
	if err != nil {
		return nil, fmt.Errorf("invalid stopLoss %q", req.StopLoss)
	}
	takeProfit, err := decimal.NewFromString(req.TakeProfit)
	if err != nil {
		return nil, fmt.Errorf("invalid takeProfit %q", req.TakeProfit)
	}

	result, err := s.placer.Place(ctx, bot.PlaceRequest{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   quantity,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	})
	if err != nil {
		return nil, err
	}

	return &models.BracketPlacement{
		Entry:              legView(result.Entry),
		StopLoss:           legView(result.StopLoss),
		TakeProfit:         legView(result.TakeProfit),
		AdjustedStopLoss:   result.AdjustedStopLoss.String(),
		AdjustedTakeProfit: result.AdjustedTakeProfit.String(),
		Registered:         result.Registered,
	}, nil
}

// CloseMarket закрывает позицию рыночным ордером.
// Пустое Quantity = закрыть весь объём
func (s *OrderService) CloseMarket(ctx context.Context, req models.CloseMarketRequest) (*models.CloseMarketResult, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	quantity := decimal.Zero
	if req.Quantity != "" {
		var err error
		quantity, err = decimal.NewFromString(req.Quantity)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q", req.Quantity)
		}
	}

	ack, err := s.client.ClosePositionMarket(ctx, exchange.CloseRequest{
		Symbol:       req.Symbol,
		PositionSide: req.PositionSide,
		Quantity:     quantity,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("position closed",
		utils.Symbol(req.Symbol),
		utils.OrderID(ack.OrderID))

	return &models.CloseMarketResult{
		OrderID:     ack.OrderID,
		Symbol:      ack.Symbol,
		Status:      ack.Status,
		AvgPrice:    ack.AvgPrice.String(),
		ExecutedQty: ack.ExecutedQty.String(),
	}, nil
}

// CancelOrder отменяет ордер. Ответ "ордера нет" считается успехом:
// с точки зрения вызывающего цель уже достигнута
func (s *OrderService) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if orderID <= 0 {
		return fmt.Errorf("orderId must be positive")
	}

	err := s.client.CancelOrder(ctx, symbol, orderID)
	if err != nil && !exchange.IsOrderGone(err) {
		return err
	}
	return nil
}

// ActiveOrders возвращает все открытые ордера аккаунта
func (s *OrderService) ActiveOrders(ctx context.Context) ([]models.OrderView, error) {
	orders, err := s.client.GetOpenOrders(ctx)
	if err != nil {
		return nil, err
	}
	return orderViews(orders), nil
}

// SetLeverage меняет плечо символа
func (s *OrderService) SetLeverage(ctx context.Context, req models.LeverageRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if req.Leverage < 1 || req.Leverage > 125 {
		return fmt.Errorf("leverage must be within 1..125, got %d", req.Leverage)
	}
	return s.client.SetLeverage(ctx, req.Symbol, req.Leverage)
}

// SetMarginType меняет режим маржи символа
func (s *OrderService) SetMarginType(ctx context.Context, req models.MarginModeRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if req.MarginType != "ISOLATED" && req.MarginType != "CROSSED" {
		return fmt.Errorf("marginType must be ISOLATED or CROSSED, got %q", req.MarginType)
	}
	return s.client.SetMarginType(ctx, req.Symbol, req.MarginType)
}

func legView(leg bot.LegResult) models.OrderLegView {
	view := models.OrderLegView{
		OrderID:       leg.OrderID,
		ClientOrderID: leg.ClientOrderID,
	}
	if leg.Err != nil {
		view.Code = leg.Err.Code
		view.Error = leg.Err.Message
	}
	return view
}
