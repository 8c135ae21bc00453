package bot

import (
	"sync"
	"time"
)

// BracketRecord - пара защитных ордеров, зарегистрированная для позиции.
// 0 в идентификаторе означает, что нога не была размещена
type BracketRecord struct {
	Key               PositionKey
	Symbol            string
	StopLossOrderID   int64
	TakeProfitOrderID int64
	CreatedAt         time.Time
}

// BracketTracker - единственный источник правды о том,
// какие защитные ордера система считает привязанными к позициям.
//
// На один PositionKey существует не более одной записи; повторная
// регистрация полностью заменяет старую, идентификаторы не сливаются.
// Карта не отдаётся наружу, все мутации идут через методы под мьютексом
type BracketTracker struct {
	mu      sync.Mutex
	records map[PositionKey]BracketRecord
}

// NewBracketTracker создаёт пустой трекер
func NewBracketTracker() *BracketTracker {
	return &BracketTracker{
		records: make(map[PositionKey]BracketRecord),
	}
}

// Register регистрирует пару ордеров для ключа (upsert)
func (t *BracketTracker) Register(record BracketRecord) {
	t.mu.Lock()
	t.records[record.Key] = record
	t.mu.Unlock()
}

// Get возвращает запись для ключа
func (t *BracketTracker) Get(key PositionKey) (BracketRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[key]
	return record, ok
}

// Remove удаляет запись для ключа
func (t *BracketTracker) Remove(key PositionKey) {
	t.mu.Lock()
	delete(t.records, key)
	t.mu.Unlock()
}

// Snapshot возвращает копию всех записей
func (t *BracketTracker) Snapshot() []BracketRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([]BracketRecord, 0, len(t.records))
	for _, r := range t.records {
		records = append(records, r)
	}
	return records
}

// Len возвращает число отслеживаемых пар
func (t *BracketTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
