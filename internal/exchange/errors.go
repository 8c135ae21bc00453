package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Коды ошибок Binance futures, на которые завязана логика
const (
	// Ордер уже отменён либо исполнен
	codeUnknownOrder   = -2011
	codeOrderNotExist  = -2013
	codeNoNeedToChange = -4046 // marginType уже установлен

	codeInvalidTimestamp = -1022
	codeBadAPIKeyFmt     = -2014
	codeRejectedKey      = -2015
	codeTooManyRequests  = -1003
)

// ErrOrderGone - ордер отсутствует на бирже (-2011/-2013).
// Для отмены это успех: цель "ордера нет" достигнута
var ErrOrderGone = errors.New("order already gone")

// APIError - ошибка, возвращённая Binance в теле ответа
type APIError struct {
	Code       int    // код Binance, отрицательный
	Message    string // msg из ответа
	HTTPStatus int    // HTTP статус, 0 если ответ был 2xx
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: code=%d msg=%q", e.Code, e.Message)
}

// Unwrap позволяет errors.Is находить ErrOrderGone
func (e *APIError) Unwrap() error {
	if e.Code == codeUnknownOrder || e.Code == codeOrderNotExist {
		return ErrOrderGone
	}
	return nil
}

// IsOrderGone сообщает, что ордера больше нет на бирже.
// Вызывающие трактуют это как успешную отмену
func IsOrderGone(err error) bool {
	return errors.Is(err, ErrOrderGone)
}

// IsAuthError - проблема с ключами или подписью; retry бессмыслен
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case codeInvalidTimestamp, codeBadAPIKeyFmt, codeRejectedKey:
		return true
	}
	return false
}

// IsRateLimited - биржа просит снизить частоту запросов
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == codeTooManyRequests || apiErr.HTTPStatus == 429 || apiErr.HTTPStatus == 418
	}
	return false
}

// IsNetworkError - транспортная ошибка: таймаут, обрыв соединения.
// Состояние ордера после такой ошибки неизвестно
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsRetryable решает, имеет ли смысл повторять запрос.
// Ошибки аутентификации и бизнес-отказы биржи не повторяются
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsNetworkError(err) || IsRateLimited(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// Бизнес-отказ (невалидные параметры, нет ордера) повторять бесполезно
		return apiErr.HTTPStatus >= 500
	}
	return true
}
