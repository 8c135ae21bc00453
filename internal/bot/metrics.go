package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики ядра. Регистрируются в default registry,
// отдаются через /metrics
var (
	reconcilePassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bracket",
		Subsystem: "reconciler",
		Name:      "passes_total",
		Help:      "Проходы сверки по результату (ok, fetch_failed, skipped)",
	}, []string{"result"})

	reconcilePassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bracket",
		Subsystem: "reconciler",
		Name:      "pass_duration_seconds",
		Help:      "Длительность прохода сверки",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	orphansDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bracket",
		Subsystem: "reconciler",
		Name:      "orphans_detected_total",
		Help:      "Обнаруженные осиротевшие условные ордера",
	})

	orderCancelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bracket",
		Subsystem: "reconciler",
		Name:      "order_cancels_total",
		Help:      "Отмены ордеров по исходу (canceled, already_gone, failed)",
	}, []string{"outcome"})

	trackedBrackets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bracket",
		Subsystem: "tracker",
		Name:      "records",
		Help:      "Число отслеживаемых пар защитных ордеров",
	})

	bracketsPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bracket",
		Subsystem: "placer",
		Name:      "brackets_total",
		Help:      "Размещения bracket-ордеров по результату (ok, partial, failed)",
	}, []string{"result"})

	exchangeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bracket",
		Subsystem: "exchange",
		Name:      "request_duration_seconds",
		Help:      "Длительность REST запросов к бирже",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"endpoint", "status"})
)

// ObserveExchangeRequest подключается к exchange.BinanceConfig.OnRequest
func ObserveExchangeRequest(endpoint string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	exchangeRequestDuration.WithLabelValues(endpoint, status).Observe(elapsed.Seconds())
}
