package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"bracket/pkg/utils"
)

const (
	markStreamPath        = "/ws/!markPrice@arr@1s"
	markStreamReadTimeout = 15 * time.Second
	markStreamMaxBackoff  = 30 * time.Second
)

// MarkPriceStream - кэш mark price, наполняемый websocket-потоком
// !markPrice@arr. Поток broadcast-овый: одна подписка покрывает все
// символы, replay подписок при переподключении не нужен.
//
// Кэш никогда не блокирует читателей надолго: Price отдаёт значение
// под RLock, запись происходит пачкой раз в секунду.
// При отсутствии свежего значения вызывающий идёт в REST GetMarkPrice
type MarkPriceStream struct {
	url    string
	maxAge time.Duration
	logger *utils.Logger
	dialer *websocket.Dialer

	mu     sync.RWMutex
	prices map[string]markEntry
}

type markEntry struct {
	price   decimal.Decimal
	updated time.Time
}

// NewMarkPriceStream создаёт кэш.
// wsBaseURL - базовый адрес (wss://fstream.binance.com)
func NewMarkPriceStream(wsBaseURL string, logger *utils.Logger) *MarkPriceStream {
	if logger == nil {
		logger = utils.L()
	}
	return &MarkPriceStream{
		url:    wsBaseURL + markStreamPath,
		maxAge: 10 * time.Second,
		logger: logger.WithComponent("markstream"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		prices: make(map[string]markEntry),
	}
}

// Run держит соединение до отмены контекста,
// переподключаясь с экспоненциальным backoff
func (s *MarkPriceStream) Run(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("mark price stream disconnected",
			utils.Err(err),
			utils.Duration("backoff", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		backoff *= 2
		if backoff > markStreamMaxBackoff {
			backoff = markStreamMaxBackoff
		}
	}
}

// readLoop подключается и читает до первой ошибки
func (s *MarkPriceStream) readLoop(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.logger.Info("mark price stream connected", utils.String("url", s.url))

	// Биржа шлёт ping, ответный pong продлевает read deadline
	conn.SetReadDeadline(time.Now().Add(markStreamReadTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(markStreamReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Закрываем соединение при отмене контекста, чтобы ReadMessage вышел
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(markStreamReadTimeout))
		s.apply(message)
	}
}

// apply обновляет кэш из одного сообщения потока
func (s *MarkPriceStream) apply(message []byte) {
	var updates []struct {
		Symbol    string `json:"s"`
		MarkPrice string `json:"p"`
		EventTime int64  `json:"E"`
	}
	if err := json.Unmarshal(message, &updates); err != nil {
		s.logger.Debug("skip unparsable stream message", utils.Err(err))
		return
	}

	now := time.Now()
	s.mu.Lock()
	for _, u := range updates {
		if u.Symbol == "" {
			continue
		}
		s.prices[u.Symbol] = markEntry{
			price:   utils.SafeDecimal(u.MarkPrice),
			updated: now,
		}
	}
	s.mu.Unlock()
}

// Price возвращает кэшированный mark price.
// false = символа нет либо значение старше maxAge
func (s *MarkPriceStream) Price(symbol string) (decimal.Decimal, bool) {
	s.mu.RLock()
	entry, ok := s.prices[symbol]
	s.mu.RUnlock()

	if !ok || time.Since(entry.updated) > s.maxAge {
		return decimal.Zero, false
	}
	return entry.price, true
}
