package exchange

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPClientConfig - настройки транспорта к REST API биржи
type HTTPClientConfig struct {
	ConnectTimeout time.Duration // установка TCP соединения
	ReadTimeout    time.Duration // ожидание заголовков ответа
	TotalTimeout   time.Duration // общий fallback-таймаут запроса

	// Connection pooling
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	TLSHandshakeTimeout time.Duration
	KeepAliveInterval   time.Duration
}

// DefaultHTTPClientConfig - параметры, подобранные под частый короткий
// трафик цикла сверки: keep-alive и переиспользование соединений обязательны,
// иначе каждый проход платит за TLS handshake
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		TotalTimeout:   30 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,
		KeepAliveInterval:   30 * time.Second,
	}
}

// NewHTTPClient создаёт http.Client с connection pooling.
// Per-request таймауты задаются контекстом вызывающего
func NewHTTPClient(config HTTPClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		// Сжатие отключено для минимизации latency коротких ответов
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ReadTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.TotalTimeout,
	}
}

// CloseIdleConnections закрывает простаивающие соединения клиента.
// Вызывается при graceful shutdown
func CloseIdleConnections(client *http.Client) {
	if transport, ok := client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
