package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server     ServerConfig
	Binance    BinanceConfig
	Reconciler ReconcilerConfig
	RateLimit  RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// BinanceConfig - подключение к Binance USDT-M futures
type BinanceConfig struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	BaseURL    string // REST, выбирается по Testnet если пусто
	WSBaseURL  string // websocket, выбирается по Testnet если пусто
	RecvWindow int64  // миллисекунды
	Timeout    time.Duration
}

// ReconcilerConfig - цикл сверки защитных ордеров с позициями
type ReconcilerConfig struct {
	Interval      time.Duration // период между проходами
	FetchTimeout  time.Duration // таймаут на выборку позиций/ордеров
	CancelTimeout time.Duration // таймаут на отмену одного ордера
}

// RateLimitConfig - token bucket перед REST вызовами
type RateLimitConfig struct {
	Rate  float64
	Burst float64
}

// SecurityConfig - аутентификация API
type SecurityConfig struct {
	// bcrypt-хеш Bearer токена; пустой = аутентификация выключена
	AuthTokenHash string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level       string
	Format      string
	Output      string
	Development bool
}

// Адреса Binance USDT-M futures
const (
	mainnetBaseURL = "https://fapi.binance.com"
	testnetBaseURL = "https://testnet.binancefuture.com"
	mainnetWSURL   = "wss://fstream.binance.com"
	testnetWSURL   = "wss://stream.binancefuture.com"
)

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Binance: BinanceConfig{
			APIKey:     getEnv("BINANCE_API_KEY", ""),
			APISecret:  getEnv("BINANCE_API_SECRET", ""),
			Testnet:    getEnvAsBool("BINANCE_TESTNET", false),
			BaseURL:    getEnv("BINANCE_BASE_URL", ""),
			WSBaseURL:  getEnv("BINANCE_WS_URL", ""),
			RecvWindow: int64(getEnvAsInt("BINANCE_RECV_WINDOW", 10000)),
			Timeout:    getEnvAsDuration("BINANCE_TIMEOUT", 5*time.Second),
		},
		Reconciler: ReconcilerConfig{
			Interval:      getEnvAsDuration("RECONCILER_INTERVAL", 15*time.Second),
			FetchTimeout:  getEnvAsDuration("RECONCILER_FETCH_TIMEOUT", 5*time.Second),
			CancelTimeout: getEnvAsDuration("RECONCILER_CANCEL_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			Rate:  getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsFloat("RATE_LIMIT_BURST", 40),
		},
		Security: SecurityConfig{
			AuthTokenHash: getEnv("API_TOKEN_HASH", ""),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Output:      getEnv("LOG_OUTPUT", ""),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Базовые URL выбираются по testnet флагу, если не заданы явно
	if cfg.Binance.BaseURL == "" {
		if cfg.Binance.Testnet {
			cfg.Binance.BaseURL = testnetBaseURL
		} else {
			cfg.Binance.BaseURL = mainnetBaseURL
		}
	}
	if cfg.Binance.WSBaseURL == "" {
		if cfg.Binance.Testnet {
			cfg.Binance.WSBaseURL = testnetWSURL
		} else {
			cfg.Binance.WSBaseURL = mainnetWSURL
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет критичные параметры
func (c *Config) validate() error {
	if c.Binance.APIKey == "" {
		return fmt.Errorf("BINANCE_API_KEY is required")
	}
	if c.Binance.APISecret == "" {
		return fmt.Errorf("BINANCE_API_SECRET is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Reconciler.Interval <= 0 {
		return fmt.Errorf("RECONCILER_INTERVAL must be positive, got %v", c.Reconciler.Interval)
	}
	if c.Reconciler.FetchTimeout <= 0 {
		return fmt.Errorf("RECONCILER_FETCH_TIMEOUT must be positive, got %v", c.Reconciler.FetchTimeout)
	}
	if c.Reconciler.CancelTimeout <= 0 {
		return fmt.Errorf("RECONCILER_CANCEL_TIMEOUT must be positive, got %v", c.Reconciler.CancelTimeout)
	}

	if c.Binance.RecvWindow < 0 || c.Binance.RecvWindow > 60000 {
		return fmt.Errorf("BINANCE_RECV_WINDOW must be between 0 and 60000 ms, got %d", c.Binance.RecvWindow)
	}
	if c.Binance.Timeout <= 0 {
		return fmt.Errorf("BINANCE_TIMEOUT must be positive, got %v", c.Binance.Timeout)
	}

	if c.RateLimit.Rate <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.Rate)
	}

	return nil
}

// Addr возвращает адрес прослушивания HTTP сервера
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
