package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"bracket/pkg/ratelimit"
	"bracket/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BinanceConfig - зависимости клиента
type BinanceConfig struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	RecvWindow int64 // миллисекунды

	HTTPClient *http.Client
	Limiter    *ratelimit.RateLimiter
	Logger     *utils.Logger

	// OnRequest вызывается после каждого REST запроса (метрики)
	OnRequest func(endpoint string, elapsed time.Duration, err error)
}

// Binance - клиент USDT-M futures REST API
type Binance struct {
	apiKey     string
	secretKey  string
	baseURL    string
	recvWindow int64

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	logger     *utils.Logger
	onRequest  func(endpoint string, elapsed time.Duration, err error)

	now func() time.Time // подменяется в тестах
}

// NewBinance создает клиент Binance USDT-M futures
func NewBinance(cfg BinanceConfig) *Binance {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultHTTPClientConfig())
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewRateLimiter(20, 40)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = utils.L()
	}
	recvWindow := cfg.RecvWindow
	if recvWindow <= 0 {
		recvWindow = 10000
	}

	return &Binance{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.APISecret,
		baseURL:    cfg.BaseURL,
		recvWindow: recvWindow,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.WithComponent("exchange"),
		onRequest:  cfg.OnRequest,
		now:        time.Now,
	}
}

// sign подписывает канонический query string: HMAC-SHA256 от
// URL-encoded параметров, отсортированных по имени
func (b *Binance) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest выполняет REST запрос.
// Binance futures принимает параметры в query string для всех методов
func (b *Binance) doRequest(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}

	query := params.Encode() // Encode сортирует ключи алфавитно
	if signed {
		params.Set("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.FormatInt(b.recvWindow, 10))
		query = params.Encode()
		query += "&signature=" + b.sign(query)
	}

	reqURL := b.baseURL + endpoint
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)

	start := b.now()
	resp, err := b.httpClient.Do(req)
	elapsed := time.Since(start)

	if b.onRequest != nil {
		defer func() { b.onRequest(endpoint, elapsed, err) }()
	}

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		var payload struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Msg
		} else {
			apiErr.Message = string(body)
		}
		err = apiErr
		return nil, apiErr
	}

	return body, nil
}

// ============================================================
// Чтение состояния
// ============================================================

// GetPositions возвращает все позиции аккаунта (включая нулевые)
func (b *Binance) GetPositions(ctx context.Context) ([]Position, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", nil, true)
	if err != nil {
		return nil, err
	}

	var positions []Position
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("decode positionRisk: %w", err)
	}
	return positions, nil
}

// GetOpenOrders возвращает все открытые ордера по всем символам
func (b *Binance) GetOpenOrders(ctx context.Context) ([]OpenOrder, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v1/openOrders", nil, true)
	if err != nil {
		return nil, err
	}

	var orders []OpenOrder
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("decode openOrders: %w", err)
	}
	return orders, nil
}

// GetAccount возвращает срез аккаунта: балансы и позиции с initialMargin
func (b *Binance) GetAccount(ctx context.Context) (*AccountSnapshot, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true)
	if err != nil {
		return nil, err
	}

	var snapshot AccountSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &snapshot, nil
}

// GetPositionMode сообщает, включён ли hedge mode
func (b *Binance) GetPositionMode(ctx context.Context) (bool, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v1/positionSide/dual", nil, true)
	if err != nil {
		return false, err
	}

	var mode struct {
		DualSidePosition bool `json:"dualSidePosition"`
	}
	if err := json.Unmarshal(body, &mode); err != nil {
		return false, fmt.Errorf("decode positionSide/dual: %w", err)
	}
	return mode.DualSidePosition, nil
}

// GetMarkPrice возвращает mark price символа
func (b *Binance) GetMarkPrice(ctx context.Context, symbol string) (*MarkPriceInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v1/premiumIndex", params, false)
	if err != nil {
		return nil, err
	}

	var info MarkPriceInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode premiumIndex: %w", err)
	}
	return &info, nil
}

// GetExchangeInfo возвращает торговые ограничения всех символов
func (b *Binance) GetExchangeInfo(ctx context.Context) ([]InstrumentMeta, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false)
	if err != nil {
		return nil, err
	}

	var info struct {
		Symbols []struct {
			Symbol            string `json:"symbol"`
			Status            string `json:"status"`
			PricePrecision    int    `json:"pricePrecision"`
			QuantityPrecision int    `json:"quantityPrecision"`
			Filters           []struct {
				FilterType string `json:"filterType"`
				TickSize   string `json:"tickSize"`
				StepSize   string `json:"stepSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode exchangeInfo: %w", err)
	}

	metas := make([]InstrumentMeta, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		meta := InstrumentMeta{
			Symbol:            s.Symbol,
			PricePrecision:    s.PricePrecision,
			QuantityPrecision: s.QuantityPrecision,
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				meta.TickSize = utils.SafeDecimal(f.TickSize)
			case "LOT_SIZE":
				meta.StepSize = utils.SafeDecimal(f.StepSize)
			}
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// GetKlines возвращает свечи.
// Биржа отдаёт их массивами, а не объектами
func (b *Binance) GetKlines(ctx context.Context, q KlinesQuery) ([]Kline, error) {
	params := url.Values{}
	params.Set("symbol", q.Symbol)
	params.Set("interval", q.Interval)
	if q.StartTime > 0 {
		params.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	}
	if q.EndTime > 0 {
		params.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v1/klines", params, false)
	if err != nil {
		return nil, err
	}

	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	klines := make([]Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 7 {
			continue
		}
		klines = append(klines, Kline{
			OpenTime:  asInt64(row[0]),
			Open:      asDecimal(row[1]),
			High:      asDecimal(row[2]),
			Low:       asDecimal(row[3]),
			Close:     asDecimal(row[4]),
			Volume:    asDecimal(row[5]),
			CloseTime: asInt64(row[6]),
		})
	}
	return klines, nil
}

// GetFundingRate возвращает историю funding rate
func (b *Binance) GetFundingRate(ctx context.Context, q FundingRateQuery) ([]FundingRate, error) {
	params := url.Values{}
	if q.Symbol != "" {
		params.Set("symbol", q.Symbol)
	}
	if q.StartTime > 0 {
		params.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	}
	if q.EndTime > 0 {
		params.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	body, err := b.doRequest(ctx, http.MethodGet, "/fapi/v1/fundingRate", params, false)
	if err != nil {
		return nil, err
	}

	var rates []FundingRate
	if err := json.Unmarshal(body, &rates); err != nil {
		return nil, fmt.Errorf("decode fundingRate: %w", err)
	}
	return rates, nil
}

// ============================================================
// Изменение состояния
// ============================================================

// PlaceBatch размещает до пяти ордеров одним запросом.
// HTTP 200 не означает успех каждого ордера: результат
// каждого элемента нужно проверять отдельно
func (b *Binance) PlaceBatch(ctx context.Context, orders []BatchOrder) ([]BatchResult, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	if len(orders) > 5 {
		return nil, fmt.Errorf("batch size %d exceeds exchange limit of 5", len(orders))
	}

	payload := make([]map[string]string, 0, len(orders))
	for _, o := range orders {
		payload = append(payload, batchOrderParams(o))
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode batchOrders: %w", err)
	}

	params := url.Values{}
	params.Set("batchOrders", string(encoded))

	body, err := b.doRequest(ctx, http.MethodPost, "/fapi/v1/batchOrders", params, true)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Code          int             `json:"code"`
		Msg           string          `json:"msg"`
		OrderID       int64           `json:"orderId"`
		ClientOrderID string          `json:"clientOrderId"`
		Symbol        string          `json:"symbol"`
		Status        string          `json:"status"`
		AvgPrice      decimal.Decimal `json:"avgPrice"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode batchOrders: %w", err)
	}

	results := make([]BatchResult, 0, len(raw))
	for _, r := range raw {
		result := BatchResult{
			OrderID:       r.OrderID,
			ClientOrderID: r.ClientOrderID,
			Symbol:        r.Symbol,
			Status:        r.Status,
			AvgPrice:      r.AvgPrice,
		}
		if r.Code != 0 {
			result.Err = &APIError{Code: r.Code, Message: r.Msg}
		}
		results = append(results, result)
	}
	return results, nil
}

// batchOrderParams сериализует ордер в строковые параметры batchOrders
func batchOrderParams(o BatchOrder) map[string]string {
	p := map[string]string{
		"symbol": o.Symbol,
		"side":   o.Side,
		"type":   o.Type,
	}
	if o.PositionSide != "" {
		p["positionSide"] = o.PositionSide
	}
	if o.Quantity.Sign() > 0 {
		p["quantity"] = o.Quantity.String()
	}
	if o.StopPrice.Sign() > 0 {
		p["stopPrice"] = o.StopPrice.String()
	}
	if o.ClosePosition {
		p["closePosition"] = "true"
	}
	if o.ReduceOnly {
		p["reduceOnly"] = "true"
	}
	if o.WorkingType != "" {
		p["workingType"] = o.WorkingType
	}
	if o.NewClientOrderID != "" {
		p["newClientOrderId"] = o.NewClientOrderID
	}
	return p
}

// CancelOrder отменяет ордер.
// Коды -2011/-2013 возвращаются как *APIError, который
// errors.Is-совместим с ErrOrderGone: вызывающий трактует их как успех
func (b *Binance) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	_, err := b.doRequest(ctx, http.MethodDelete, "/fapi/v1/order", params, true)
	return err
}

// ClosePositionMarket закрывает позицию рыночным ордером.
// При нулевом Quantity объём берётся из текущей позиции
func (b *Binance) ClosePositionMarket(ctx context.Context, req CloseRequest) (*OrderAck, error) {
	quantity := req.Quantity
	side := ""

	switch req.PositionSide {
	case "LONG":
		side = "SELL"
	case "SHORT":
		side = "BUY"
	}

	if quantity.Sign() <= 0 || side == "" {
		positions, err := b.GetPositions(ctx)
		if err != nil {
			return nil, err
		}
		found := false
		for _, p := range positions {
			if p.Symbol != req.Symbol || p.Quantity.IsZero() {
				continue
			}
			if req.PositionSide != "" && p.PositionSide != req.PositionSide {
				continue
			}
			if quantity.Sign() <= 0 {
				quantity = p.Quantity.Abs()
			}
			if side == "" {
				if p.Quantity.Sign() > 0 {
					side = "SELL"
				} else {
					side = "BUY"
				}
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("no open position for %s", req.Symbol)
		}
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", quantity.String())
	params.Set("newOrderRespType", "RESULT")
	if req.PositionSide != "" {
		// hedge mode: reduceOnly не принимается вместе с positionSide
		params.Set("positionSide", req.PositionSide)
	} else {
		params.Set("reduceOnly", "true")
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/fapi/v1/order", params, true)
	if err != nil {
		return nil, err
	}

	var ack OrderAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &ack, nil
}

// SetLeverage устанавливает плечо символа
func (b *Binance) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	_, err := b.doRequest(ctx, http.MethodPost, "/fapi/v1/leverage", params, true)
	return err
}

// SetMarginType устанавливает режим маржи (ISOLATED/CROSSED).
// Код -4046 "уже установлен" считается успехом
func (b *Binance) SetMarginType(ctx context.Context, symbol, marginType string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", marginType)

	_, err := b.doRequest(ctx, http.MethodPost, "/fapi/v1/marginType", params, true)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeNoNeedToChange {
			return nil
		}
		return err
	}
	return nil
}

// ============================================================
// Вспомогательные функции
// ============================================================

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func asDecimal(v interface{}) decimal.Decimal {
	if s, ok := v.(string); ok {
		return utils.SafeDecimal(s)
	}
	if f, ok := v.(float64); ok {
		return decimal.NewFromFloat(f)
	}
	return decimal.Zero
}
