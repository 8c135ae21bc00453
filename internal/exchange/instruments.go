package exchange

import (
	"context"
	"fmt"
	"sync"
)

// InstrumentTable - таблица торговых ограничений символов.
// Загружается из exchangeInfo при старте; округление цен и количеств
// во всём приложении опирается на неё, а не на зашитые константы
type InstrumentTable struct {
	mu       sync.RWMutex
	bySymbol map[string]InstrumentMeta
}

// NewInstrumentTable создаёт пустую таблицу
func NewInstrumentTable() *InstrumentTable {
	return &InstrumentTable{
		bySymbol: make(map[string]InstrumentMeta),
	}
}

// Load наполняет таблицу из exchangeInfo.
// Повторный вызов полностью заменяет содержимое
func (t *InstrumentTable) Load(ctx context.Context, client Client) error {
	metas, err := client.GetExchangeInfo(ctx)
	if err != nil {
		return fmt.Errorf("load exchange info: %w", err)
	}
	if len(metas) == 0 {
		return fmt.Errorf("exchange info returned no symbols")
	}

	fresh := make(map[string]InstrumentMeta, len(metas))
	for _, m := range metas {
		fresh[m.Symbol] = m
	}

	t.mu.Lock()
	t.bySymbol = fresh
	t.mu.Unlock()
	return nil
}

// Meta возвращает ограничения символа
func (t *InstrumentTable) Meta(symbol string) (InstrumentMeta, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.bySymbol[symbol]
	return m, ok
}

// Len возвращает число известных символов
func (t *InstrumentTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bySymbol)
}

// Put добавляет или заменяет запись.
// Используется в тестах и при ручном доопределении символов
func (t *InstrumentTable) Put(meta InstrumentMeta) {
	t.mu.Lock()
	t.bySymbol[meta.Symbol] = meta
	t.mu.Unlock()
}
