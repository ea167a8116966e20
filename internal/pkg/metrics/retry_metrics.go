package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetryCurrentAttempts операции, находящиеся в цикле retry прямо сейчас
	RetryCurrentAttempts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retry_current_operations",
			Help: "Number of operations currently inside a retry loop",
		},
		[]string{"operation"},
	)

	// RetryAttemptsTotal попытки по номеру и статусу
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts by attempt number and status",
		},
		[]string{"operation", "attempt", "status"},
	)

	// RetryOperationDuration длительность отдельных попыток
	RetryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retry_operation_duration_seconds",
			Help:    "Duration of a single attempt",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation", "attempt", "status"},
	)

	// RetrySuccessRate доля успешных попыток последней операции
	RetrySuccessRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retry_success_rate",
			Help: "Share of successful attempts for the last retried operation",
		},
		[]string{"operation"},
	)

	// RetryErrorsTotal ошибки попыток по классу
	RetryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_errors_total",
			Help: "Errors observed during retry attempts by class",
		},
		[]string{"operation", "error_type", "attempt"},
	)

	// RetryBackoffDuration задержка перед следующей попыткой
	RetryBackoffDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retry_backoff_duration_seconds",
			Help:    "Backoff delay before the next attempt",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation", "attempt"},
	)
)
