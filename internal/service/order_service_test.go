package service

import (
	"context"
	"errors"
	"testing"

	"bracket/internal/bot"
	"bracket/internal/exchange"
	"bracket/internal/models"
)

type requestBuilder struct {
	quantity, stopLoss, takeProfit string
}

func defaultRequestBuilder() requestBuilder {
	return requestBuilder{quantity: "0.5", stopLoss: "24000", takeProfit: "26000"}
}

func (b requestBuilder) build() models.OpenMarketRequest {
	return models.OpenMarketRequest{
		Symbol:     "BTCUSDT",
		Side:       "BUY",
		Quantity:   b.quantity,
		StopLoss:   b.stopLoss,
		TakeProfit: b.takeProfit,
	}
}

func orderRequest() models.OpenMarketRequest {
	return defaultRequestBuilder().build()
}

func closeRequest(quantity string) models.CloseMarketRequest {
	return models.CloseMarketRequest{Symbol: "BTCUSDT", Quantity: quantity}
}

func leverageRequest(leverage int) models.LeverageRequest {
	return models.LeverageRequest{Symbol: "BTCUSDT", Leverage: leverage}
}

func marginRequest(marginType string) models.MarginModeRequest {
	return models.MarginModeRequest{Symbol: "BTCUSDT", MarginType: marginType}
}

func TestOrderService_OpenMarket(t *testing.T) {
	placer := &mockPlacer{
		result: &bot.PlaceResult{
			Entry:              bot.LegResult{OrderID: 1, ClientOrderID: "x-1-aaaaa-M"},
			StopLoss:           bot.LegResult{OrderID: 2, ClientOrderID: "x-1-aaaaa-SL"},
			TakeProfit:         bot.LegResult{OrderID: 3, ClientOrderID: "x-1-aaaaa-TP"},
			AdjustedStopLoss:   mustDecimal("24000"),
			AdjustedTakeProfit: mustDecimal("26000"),
			Registered:         true,
		},
	}
	svc := NewOrderService(newMockClient(), placer, nil)

	placement, err := svc.OpenMarket(context.Background(), orderRequest())
	if err != nil {
		t.Fatalf("OpenMarket: %v", err)
	}

	if placer.lastReq.Symbol != "BTCUSDT" || placer.lastReq.Side != "BUY" {
		t.Errorf("placer got %+v", placer.lastReq)
	}
	if !placer.lastReq.Quantity.Equal(mustDecimal("0.5")) {
		t.Errorf("Quantity = %s, want 0.5", placer.lastReq.Quantity)
	}
	if placement.Entry.OrderID != 1 || placement.StopLoss.OrderID != 2 || placement.TakeProfit.OrderID != 3 {
		t.Errorf("placement legs = %+v", placement)
	}
	if placement.AdjustedStopLoss != "24000" {
		t.Errorf("AdjustedStopLoss = %s", placement.AdjustedStopLoss)
	}
	if !placement.Registered {
		t.Error("Registered = false, want true")
	}
}

func TestOrderService_OpenMarketPartialFailure(t *testing.T) {
	placer := &mockPlacer{
		result: &bot.PlaceResult{
			Entry:    bot.LegResult{OrderID: 1},
			StopLoss: bot.LegResult{Err: &exchange.APIError{Code: -2021, Message: "Order would immediately trigger."}},
			TakeProfit: bot.LegResult{
				OrderID: 3,
			},
			Registered: false,
		},
	}
	svc := NewOrderService(newMockClient(), placer, nil)

	placement, err := svc.OpenMarket(context.Background(), orderRequest())
	if err != nil {
		t.Fatalf("partial failure must not be an error: %v", err)
	}
	if placement.Registered {
		t.Error("Registered = true, want false")
	}
	if placement.StopLoss.Code != -2021 {
		t.Errorf("StopLoss.Code = %d, want -2021", placement.StopLoss.Code)
	}
	if placement.StopLoss.Error == "" {
		t.Error("StopLoss.Error is empty")
	}
}

func TestOrderService_OpenMarketInvalidNumbers(t *testing.T) {
	svc := NewOrderService(newMockClient(), &mockPlacer{}, nil)

	for _, tc := range []struct {
		name   string
		mutate func(*requestBuilder)
	}{
		{"bad quantity", func(r *requestBuilder) { r.quantity = "abc" }},
		{"bad stopLoss", func(r *requestBuilder) { r.stopLoss = "" }},
		{"bad takeProfit", func(r *requestBuilder) { r.takeProfit = "1,5" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := defaultRequestBuilder()
			tc.mutate(&b)
			if _, err := svc.OpenMarket(context.Background(), b.build()); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestOrderService_CancelOrderGoneIsSuccess(t *testing.T) {
	mock := newMockClient()
	mock.cancelErr = &exchange.APIError{Code: -2011, Message: "Unknown order sent."}
	svc := NewOrderService(mock, &mockPlacer{}, nil)

	if err := svc.CancelOrder(context.Background(), "BTCUSDT", 42); err != nil {
		t.Errorf("order-gone cancel returned error: %v", err)
	}
}

func TestOrderService_CancelOrderRealError(t *testing.T) {
	mock := newMockClient()
	mock.cancelErr = errors.New("timeout")
	svc := NewOrderService(mock, &mockPlacer{}, nil)

	if err := svc.CancelOrder(context.Background(), "BTCUSDT", 42); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestOrderService_CancelOrderValidation(t *testing.T) {
	svc := NewOrderService(newMockClient(), &mockPlacer{}, nil)

	if err := svc.CancelOrder(context.Background(), "", 42); err == nil {
		t.Error("empty symbol accepted")
	}
	if err := svc.CancelOrder(context.Background(), "BTCUSDT", 0); err == nil {
		t.Error("zero orderId accepted")
	}
}

func TestOrderService_CloseMarket(t *testing.T) {
	mock := newMockClient()
	mock.closeAck = &exchange.OrderAck{
		OrderID:     77,
		Symbol:      "BTCUSDT",
		Status:      "FILLED",
		AvgPrice:    mustDecimal("25100.5"),
		ExecutedQty: mustDecimal("0.5"),
	}
	svc := NewOrderService(mock, &mockPlacer{}, nil)

	result, err := svc.CloseMarket(context.Background(), closeRequest("0.5"))
	if err != nil {
		t.Fatalf("CloseMarket: %v", err)
	}
	if result.OrderID != 77 || result.AvgPrice != "25100.5" {
		t.Errorf("result = %+v", result)
	}
	if !mock.lastClose.Quantity.Equal(mustDecimal("0.5")) {
		t.Errorf("close quantity = %s, want 0.5", mock.lastClose.Quantity)
	}
}

func TestOrderService_CloseMarketFullPosition(t *testing.T) {
	mock := newMockClient()
	svc := NewOrderService(mock, &mockPlacer{}, nil)

	// Пустое количество = закрыть весь объём
	if _, err := svc.CloseMarket(context.Background(), closeRequest("")); err != nil {
		t.Fatalf("CloseMarket: %v", err)
	}
	if !mock.lastClose.Quantity.IsZero() {
		t.Errorf("close quantity = %s, want 0", mock.lastClose.Quantity)
	}
}

func TestOrderService_SetLeverageValidation(t *testing.T) {
	mock := newMockClient()
	svc := NewOrderService(mock, &mockPlacer{}, nil)

	if err := svc.SetLeverage(context.Background(), leverageRequest(0)); err == nil {
		t.Error("leverage 0 accepted")
	}
	if err := svc.SetLeverage(context.Background(), leverageRequest(126)); err == nil {
		t.Error("leverage 126 accepted")
	}
	if err := svc.SetLeverage(context.Background(), leverageRequest(20)); err != nil {
		t.Errorf("leverage 20 rejected: %v", err)
	}
	if mock.leverageSet["BTCUSDT"] != 20 {
		t.Errorf("leverage not forwarded: %v", mock.leverageSet)
	}
}

func TestOrderService_SetMarginTypeValidation(t *testing.T) {
	mock := newMockClient()
	svc := NewOrderService(mock, &mockPlacer{}, nil)

	err := svc.SetMarginType(context.Background(), marginRequest("isolated"))
	if err == nil {
		t.Error("lowercase margin type accepted")
	}
	if err := svc.SetMarginType(context.Background(), marginRequest("CROSSED")); err != nil {
		t.Errorf("CROSSED rejected: %v", err)
	}
	if mock.marginSet["BTCUSDT"] != "CROSSED" {
		t.Errorf("margin type not forwarded: %v", mock.marginSet)
	}
}
