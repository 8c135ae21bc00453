package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - конфигурация логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json или text
	Output      string // путь к файлу; пусто = stderr
	Development bool   // режим разработки (человекочитаемые stack trace)
}

// Logger - обёртка над zap.Logger с доменными помощниками.
//
// Структурированное логирование используется во всех компонентах:
// - reconciler: результаты проходов, найденные orphan-ордера
// - placer: размещение bracket-ордеров, корректировки триггерных цен
// - exchange: запросы к Binance, коды ошибок
// - api: HTTP middleware
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// parseLevel преобразует строковый уровень в zapcore.Level.
// Неизвестные значения трактуются как info
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger создаёт логгер по конфигурации.
// Никогда не возвращает nil: при ошибке открытия файла происходит
// fallback на stderr
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "text" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			sink = zapcore.AddSync(file)
		}
		// при ошибке остаёмся на stderr
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zl := zap.New(core, opts...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// With возвращает новый логгер с добавленными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// WithComponent добавляет имя компонента (reconciler, placer, exchange, api)
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(zap.String("component", name))
}

// WithSymbol добавляет торговый символ
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(zap.String("symbol", symbol))
}

// WithOrderID добавляет идентификатор ордера
func (l *Logger) WithOrderID(orderID int64) *Logger {
	return l.With(zap.Int64("order_id", orderID))
}

// Sugar возвращает sugared logger для printf-style логирования
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitGlobalLogger инициализирует глобальный логгер
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger возвращает глобальный логгер,
// создавая логгер по умолчанию при первом обращении
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// Debug логирует через глобальный логгер
func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }

// Info логирует через глобальный логгер
func Info(msg string, fields ...zap.Field) { GetGlobalLogger().Info(msg, fields...) }

// Warn логирует через глобальный логгер
func Warn(msg string, fields ...zap.Field) { GetGlobalLogger().Warn(msg, fields...) }

// Error логирует через глобальный логгер
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }

// Fatal логирует через глобальный логгер и завершает процесс
func Fatal(msg string, fields ...zap.Field) { GetGlobalLogger().Fatal(msg, fields...) }

// Debugf - printf-style debug
func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }

// Infof - printf-style info
func Infof(format string, args ...interface{}) { GetGlobalLogger().sugar.Infof(format, args...) }

// Warnf - printf-style warn
func Warnf(format string, args ...interface{}) { GetGlobalLogger().sugar.Warnf(format, args...) }

// Errorf - printf-style error
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// fieldsToInterface преобразует zap.Field в плоский список ключ/значение
// (для передачи в SugaredLogger.With)
func fieldsToInterface(fields []zap.Field) []interface{} {
	result := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		result = append(result, f.Key, f.Interface)
	}
	return result
}

// ============================================================
// Доменные конструкторы полей
// ============================================================

// Symbol - торговый символ (BTCUSDT)
func Symbol(symbol string) zap.Field { return zap.String("symbol", symbol) }

// OrderID - идентификатор ордера на бирже
func OrderID(id int64) zap.Field { return zap.Int64("order_id", id) }

// ClientOrderID - клиентский идентификатор ордера
func ClientOrderID(id string) zap.Field { return zap.String("client_order_id", id) }

// PositionKey - ключ позиции (BTCUSDT_LONG)
func PositionKey(key string) zap.Field { return zap.String("position_key", key) }

// Price - цена строкой, чтобы не терять decimal-точность
func Price(price string) zap.Field { return zap.String("price", price) }

// Side - сторона ордера или позиции (BUY/SELL, LONG/SHORT)
func Side(side string) zap.Field { return zap.String("side", side) }

// Latency - длительность операции в миллисекундах
func Latency(ms float64) zap.Field { return zap.Float64("latency_ms", ms) }

// Component - имя компонента
func Component(name string) zap.Field { return zap.String("component", name) }

// RequestID - идентификатор HTTP запроса
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// Переэкспорт стандартных конструкторов zap,
// чтобы вызывающему коду не импортировать zap напрямую
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Err      = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
)
