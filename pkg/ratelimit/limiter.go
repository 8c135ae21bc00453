package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - Token Bucket для контроля частоты запросов к бирже
//
// Ведро наполняется токенами с постоянной скоростью (rate токенов/сек),
// ёмкость ограничена burst, каждый запрос потребляет вес запроса в токенах.
// Binance USDT-M даёт 2400 weight/min на REST; дефолты подобраны с запасом
//
//	limiter := NewRateLimiter(20, 40) // 20 req/sec, burst 40
//	err := limiter.Wait(ctx)          // блокирующее ожидание
type RateLimiter struct {
	rate       float64 // токенов в секунду
	burst      float64 // максимальная ёмкость
	tokens     float64 // текущее количество токенов
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter создаёт rate limiter.
// rate - запросов в секунду, burst - допустимый всплеск (обычно 2x rate)
func NewRateLimiter(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 20
	}
	if burst <= 0 {
		burst = rate * 2
	}
	if burst < rate {
		burst = rate
	}

	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // начинаем с полным ведром
		lastRefill: time.Now(),
	}
}

// refill пополняет токены по прошедшему времени.
// Вызывается под lock'ом
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}

	rl.lastRefill = now
}

// Wait блокирует до получения токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN блокирует до получения n токенов.
// Используется для тяжёлых эндпоинтов: batchOrders и account
// стоят больше одного weight
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	need := float64(n)
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= need {
			rl.tokens -= need
			rl.mu.Unlock()
			return nil
		}

		waitTime := time.Duration((need - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		select {
		case <-time.After(waitTime):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Allow проверяет доступность токена без блокировки
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	return false
}

// Tokens возвращает текущее количество доступных токенов.
// Для мониторинга и тестов
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// Rate возвращает скорость пополнения (токенов/сек)
func (rl *RateLimiter) Rate() float64 {
	return rl.rate
}

// Burst возвращает ёмкость ведра
func (rl *RateLimiter) Burst() float64 {
	return rl.burst
}
